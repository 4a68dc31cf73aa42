package docpicker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// AcceptedTypes is the MIME whitelist of the upload controller.
var AcceptedTypes = []string{
	"application/pdf",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// PickerAccept lists the file extensions offered by the file picker.
const PickerAccept = ".pdf,.txt,.doc,.docx"

// ErrUnsupportedType is returned for files outside the whitelist.
var ErrUnsupportedType = errors.New("unsupported document type")

// extensionTypes backs [TypeByExtension] where the system MIME table has
// no entry, which is common for the Word formats.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// TypeByExtension returns the MIME type of a file name, without
// parameters.
func TypeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t, _, _ := mime.ParseMediaType(mime.TypeByExtension(ext))
	return t
}

// FileFromPath describes a local file for upload.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	return File{
		Name: filepath.Base(path),
		Type: TypeByExtension(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadWidget is the upload controller of a node: a button plus the
// node's drag and drop handlers, all feeding the upload service. Results
// land in the target widget.
type UploadWidget struct {
	node    *Node
	target  string
	service UploadService
	button  *Widget

	// The Alert field shows blocking failure messages to the user.
	Alert func(msg string)

	// The Pick field plays the part of the hidden file picker opened
	// by the button. A nil Pick makes the button inert.
	Pick func() (File, error)

	// The Wrap field, when set, wraps every upload body as it is
	// read from the file.
	Wrap func(f File, r io.Reader) io.Reader
}

// AttachUpload adds an upload button named inputName to the node and
// takes over its drag and drop handlers. Uploaded paths go to the
// widget named target.
func AttachUpload(node *Node, inputName, target string, service UploadService) *UploadWidget {
	u := &UploadWidget{
		node:    node,
		target:  target,
		service: service,
	}

	u.button = node.AddWidget(KindButton, inputName, "document", u.click)
	u.button.Label = "Choose file to upload"
	u.button.Transient = true

	node.OnDragOver = u.DragOver
	node.OnDragDrop = u.Drop

	return u
}

func (u *UploadWidget) Button() *Widget {
	return u.button
}

// Accepts reports whether a MIME type is on the whitelist.
func (u *UploadWidget) Accepts(mimeType string) bool {
	return slices.Contains(AcceptedTypes, mimeType)
}

// DragOver reports whether any dragged item is an accepted file.
func (u *UploadWidget) DragOver(items []DragItem) bool {
	return slices.ContainsFunc(items, func(it DragItem) bool {
		return it.Kind == "file" && u.Accepts(it.Type)
	})
}

// Drop uploads every accepted file. Only the first one becomes the
// widget's value. It reports whether any file was handled.
func (u *UploadWidget) Drop(ctx context.Context, files []File) bool {
	handled := false
	for _, f := range files {
		if !u.Accepts(f.Type) {
			logger.Debug().Str("file", f.Name).Str("type", f.Type).Msg("ignoring dropped file")
			continue
		}

		// Failures were already shown through Alert.
		_ = u.Upload(ctx, f, !handled)
		handled = true
	}
	return handled
}

// Choose uploads a picked file and makes it the widget's value.
func (u *UploadWidget) Choose(ctx context.Context, f File) error {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" || !slices.Contains(strings.Split(PickerAccept, ","), ext) {
		err := fmt.Errorf("%s: %w", f.Name, ErrUnsupportedType)
		u.alert(err.Error())
		return err
	}
	return u.Upload(ctx, f, true)
}

func (u *UploadWidget) click() {
	if u.Pick == nil {
		return
	}

	f, err := u.Pick()
	if err != nil {
		logger.Debug().Err(err).Msg("no file picked")
		return
	}

	_ = u.Choose(context.Background(), f)
}

// Upload sends one file to the upload service. On success the stored
// path joins the target widget's known values, and becomes its value
// when setValue is true. On failure the user is alerted and the widget
// is left untouched.
func (u *UploadWidget) Upload(ctx context.Context, f File, setValue bool) error {
	err := u.upload(ctx, f, setValue)
	if err != nil {
		logger.Error().Err(err).Str("file", f.Name).Msg("upload failed")
		u.alert(err.Error())
	}
	return err
}

func (u *UploadWidget) upload(ctx context.Context, f File, setValue bool) error {
	if f.Open == nil {
		return fmt.Errorf("%s: no contents", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	var body io.Reader = rc
	if u.Wrap != nil {
		body = u.Wrap(f, rc)
	}

	res, err := u.service.Upload(ctx, f.Name, body)
	if err != nil {
		return err
	}

	path := res.Path()
	logger.Info().Str("file", f.Name).Str("path", path).Msg("document uploaded")

	w := u.node.Widget(u.target)
	if w == nil {
		return nil
	}
	w.AddValue(path)
	if setValue {
		w.SetValue(path)
	}
	return nil
}

func (u *UploadWidget) alert(msg string) {
	if u.Alert != nil {
		u.Alert(msg)
	}
}

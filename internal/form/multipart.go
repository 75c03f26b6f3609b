package form

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"marketplace-gateway/internal/models"
)

// EncodeMultipart serializes every draft value into a multipart/form-data body.
// Files become file parts, variant trees are flattened, everything else is a
// plain field. Fields are written in name order.
func EncodeMultipart(values map[string]interface{}) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writeValue(w, name, values[name]); err != nil {
			return nil, "", fmt.Errorf("encode field %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func writeValue(w *multipart.Writer, name string, value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case *models.FileRef:
		if v == nil {
			return nil
		}
		return writeFile(w, name, v)
	case []*models.FileRef:
		for _, f := range v {
			if err := writeFile(w, name, f); err != nil {
				return err
			}
		}
		return nil
	case VariantTree:
		return writeVariants(w, v)
	case *VariantTree:
		if v == nil {
			return nil
		}
		return writeVariants(w, *v)
	case []string:
		for _, s := range v {
			if err := w.WriteField(name, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return w.WriteField(name, stringValue(v))
	}
}

func writeVariants(w *multipart.Writer, tree VariantTree) error {
	fields, err := tree.Flatten()
	if err != nil {
		return err
	}
	return writeFields(w, fields)
}

func writeFields(w *multipart.Writer, fields []Field) error {
	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, name string, f *models.FileRef) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(f.Filename)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Content)
	return err
}

// DecodeMultipart turns a parsed multipart form into draft values. Variant
// fields are folded into a single VariantTree under variantsField when present.
func DecodeMultipart(form *multipart.Form, variantsField string) (map[string]interface{}, error) {
	values := make(map[string]interface{})
	variantFields := make(map[string]string)

	for name, vs := range form.Value {
		if len(vs) == 0 {
			continue
		}
		if variantsField != "" && IsVariantField(name) {
			variantFields[name] = vs[0]
			continue
		}
		if len(vs) == 1 {
			values[name] = vs[0]
		} else {
			values[name] = append([]string(nil), vs...)
		}
	}

	for name, headers := range form.File {
		files := make([]*models.FileRef, 0, len(headers))
		for _, fh := range headers {
			ref, err := readFileHeader(fh)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if ref.Size == 0 && ref.Filename == "" {
				continue
			}
			files = append(files, ref)
		}
		switch len(files) {
		case 0:
		case 1:
			values[name] = files[0]
		default:
			values[name] = files
		}
	}

	if len(variantFields) > 0 {
		tree, err := DecodeVariants(variantFields)
		if err != nil {
			return nil, err
		}
		values[variantsField] = tree
	}
	return values, nil
}

func readFileHeader(fh *multipart.FileHeader) (*models.FileRef, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := bytes.NewBuffer(make([]byte, 0, fh.Size))
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, err
	}
	return &models.FileRef{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     buf.Bytes(),
	}, nil
}

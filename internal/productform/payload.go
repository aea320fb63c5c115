package productform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Payload is an encoded multipart body ready to send.
type Payload struct {
	Body        []byte
	ContentType string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode serializes the draft and slots. Edit payloads also list the remote URLs
// that are kept, per media kind.
func Encode(mode Mode, d Draft, s Slots) (Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range textFields {
		if err := w.WriteField(f.name, *f.ref(&d)); err != nil {
			return Payload{}, err
		}
	}
	for _, f := range flagFields {
		if err := w.WriteField(f.name, boolString(*f.ref(&d))); err != nil {
			return Payload{}, err
		}
	}
	if v := d.BidTimerValue(); v != "" {
		if err := w.WriteField(bidTimerField, v); err != nil {
			return Payload{}, err
		}
	}

	for _, g := range slotGroups {
		for i, sl := range s[g.kind] {
			if sl.Local == nil {
				continue
			}
			name := fmt.Sprintf("%s%d", g.prefix, i+1)
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(name), quoteEscaper.Replace(sl.Local.Name)))
			h.Set("Content-Type", sl.Local.ContentType())
			part, err := w.CreatePart(h)
			if err != nil {
				return Payload{}, err
			}
			if _, err := part.Write(sl.Local.Data); err != nil {
				return Payload{}, err
			}
		}
		if mode == Edit {
			raw, err := json.Marshal(s.retainedURLs(g.kind))
			if err != nil {
				return Payload{}, err
			}
			if err := w.WriteField(g.existing, string(raw)); err != nil {
				return Payload{}, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return Payload{}, err
	}
	return Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

// Package envelope parses raw .eml files into the message form the
// extraction engine consumes: subject, sender, recipients, sent time, the
// first text/plain and text/html body parts, and attachment payloads with
// content-addressed identities.
package envelope

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"
	"time"
)

// ErrMalformed is returned when the file is not parseable as a MIME message.
var ErrMalformed = errors.New("envelope: malformed message")

// maxParts bounds recursive multipart walking so a pathological message
// cannot wedge the batch.
const maxParts = 512

// Attachment is one attachment part: payload plus the identity fields the
// ingestion store records. The extraction core treats these as opaque.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Payload     []byte
	SHA256      string
}

// Envelope is a parsed email message.
type Envelope struct {
	SourcePath  string
	MessageID   string
	Subject     string
	Sender      string
	Recipients  []string
	Cc          []string
	Bcc         []string
	SentAt      time.Time // zero when the Date header is absent or invalid
	RawBytes    []byte
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
	Headers     map[string]string
}

// SHA256 returns the hex digest of the raw message bytes, the identity used
// for ingestion dedup.
func (e *Envelope) SHA256() string {
	sum := sha256.Sum256(e.RawBytes)
	return hex.EncodeToString(sum[:])
}

// ContentKind reports the form of the primary body part: "html" when an
// HTML part exists, "text" when only plain text does, "" when neither.
// HTML wins because the table templates ship both parts and the HTML one
// carries the question rows.
func (e *Envelope) ContentKind() string {
	switch {
	case e.HTMLBody != "":
		return "html"
	case e.TextBody != "":
		return "text"
	}
	return ""
}

// Body returns the primary body matching ContentKind.
func (e *Envelope) Body() string {
	if e.HTMLBody != "" {
		return e.HTMLBody
	}
	return e.TextBody
}

// Load reads and parses an .eml file.
func Load(path string) (*Envelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("envelope: read %s: %w", path, err)
	}
	env, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("envelope: %s: %w", path, err)
	}
	env.SourcePath = path
	return env, nil
}

// Parse decodes raw message bytes into an Envelope.
func Parse(raw []byte) (*Envelope, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	dec := new(mime.WordDecoder)
	env := &Envelope{
		RawBytes:   raw,
		MessageID:  strings.TrimSpace(msg.Header.Get("Message-ID")),
		Subject:    decodeHeader(dec, msg.Header.Get("Subject")),
		Sender:     decodeHeader(dec, msg.Header.Get("From")),
		Recipients: addressList(msg.Header, "To"),
		Cc:         addressList(msg.Header, "Cc"),
		Bcc:        addressList(msg.Header, "Bcc"),
		Headers:    map[string]string{},
	}
	for key := range msg.Header {
		env.Headers[key] = msg.Header.Get(key)
	}
	if sent, err := msg.Header.Date(); err == nil {
		env.SentAt = sent
	}

	parts := 0
	if err := walkPart(env, textproto(msg.Header), msg.Body, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}

// partHeader is the subset of header access walkPart needs, satisfied by
// both mail.Header and multipart part headers.
type partHeader interface {
	Get(key string) string
}

type headerFunc func(key string) string

func (f headerFunc) Get(key string) string { return f(key) }

func textproto(h mail.Header) partHeader {
	return headerFunc(func(key string) string { return h.Get(key) })
}

func walkPart(env *Envelope, header partHeader, body io.Reader, parts *int) error {
	*parts++
	if *parts > maxParts {
		return errors.New("too many MIME parts")
	}

	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return errors.New("multipart without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			sub := headerFunc(func(key string) string { return part.Header.Get(key) })
			if err := walkPart(env, sub, part, parts); err != nil {
				return err
			}
		}
	}

	payload, err := decodeBody(body, header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return err
	}

	filename := partFilename(header, params)
	disposition := strings.ToLower(strings.TrimSpace(strings.SplitN(header.Get("Content-Disposition"), ";", 2)[0]))

	if filename != "" && (disposition == "attachment" || disposition == "inline") {
		sum := sha256.Sum256(payload)
		env.Attachments = append(env.Attachments, Attachment{
			Filename:    filename,
			ContentType: mediaType,
			ContentID:   strings.Trim(header.Get("Content-ID"), "<>"),
			Payload:     payload,
			SHA256:      hex.EncodeToString(sum[:]),
		})
		return nil
	}

	text := decodeCharset(payload, params["charset"])
	switch {
	case mediaType == "text/plain" && env.TextBody == "":
		env.TextBody = text
	case mediaType == "text/html" && env.HTMLBody == "":
		env.HTMLBody = text
	}
	return nil
}

func decodeBody(body io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, newWhitespaceStripper(body))
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}
	payload, err := io.ReadAll(io.LimitReader(body, 64<<20))
	if err != nil {
		// Quoted-printable in the wild is frequently sloppy; keep what
		// decoded rather than losing the whole part.
		if len(payload) > 0 {
			return payload, nil
		}
		return nil, err
	}
	return payload, nil
}

// decodeCharset converts a text payload to UTF-8. The senders in scope emit
// UTF-8 or Latin-1; anything else passes through as-is rather than failing.
func decodeCharset(payload []byte, charset string) string {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin1", "windows-1252":
		runes := make([]rune, len(payload))
		for i, b := range payload {
			runes[i] = rune(b)
		}
		return string(runes)
	}
	return string(payload)
}

func partFilename(header partHeader, typeParams map[string]string) string {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return typeParams["name"]
}

func decodeHeader(dec *mime.WordDecoder, value string) string {
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}

func addressList(h mail.Header, key string) []string {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}
	addrs := make([]string, 0, len(list))
	for _, a := range list {
		addrs = append(addrs, a.Address)
	}
	return addrs
}

// newWhitespaceStripper filters CR/LF/space from base64 bodies before
// decoding; std base64 rejects embedded line breaks.
func newWhitespaceStripper(r io.Reader) io.Reader {
	return &whitespaceStripper{r: r}
}

type whitespaceStripper struct {
	r io.Reader
}

func (w *whitespaceStripper) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	kept := 0
	for i := 0; i < n; i++ {
		switch p[i] {
		case '\r', '\n', ' ', '\t':
			continue
		}
		p[kept] = p[i]
		kept++
	}
	if kept == 0 && err == nil && n > 0 {
		return w.Read(p)
	}
	return kept, err
}

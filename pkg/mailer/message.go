package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var (
	tmplOnce sync.Once
	textTmpl *texttmpl.Template
	htmlTmpl *htmltmpl.Template
	tmplErr  error
)

// Attachment is an in-memory file sent with a message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing email. Either set Text/HTML directly or name a
// template under templates/ (without extension) and give it Data.
type Message struct {
	To          []mail.Address
	Subject     string
	Text        string
	HTML        string
	Template    string
	Data        interface{}
	Attachments []Attachment
}

// Render fills Text and HTML from the named template. A template may exist
// in only one of the two flavours.
func (m *Message) Render() error {
	if m.Template == "" {
		return nil
	}
	tmplOnce.Do(parseTemplates)
	if tmplErr != nil {
		return tmplErr
	}

	if t := textTmpl.Lookup(m.Template + ".txt"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, m.Data); err != nil {
			return fmt.Errorf("render %s.txt: %w", m.Template, err)
		}
		m.Text = buf.String()
	}
	if t := htmlTmpl.Lookup(m.Template + ".gohtml"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, m.Data); err != nil {
			return fmt.Errorf("render %s.gohtml: %w", m.Template, err)
		}
		m.HTML = buf.String()
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("unknown mail template %q", m.Template)
	}
	return nil
}

func (m *Message) hasRecipients() bool { return len(m.To) > 0 }

func (m *Message) recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, a := range m.To {
		out = append(out, a.Address)
	}
	return out
}

func parseTemplates() {
	textTmpl, tmplErr = texttmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt")
	if tmplErr != nil {
		return
	}
	htmlTmpl, tmplErr = htmltmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.gohtml")
}

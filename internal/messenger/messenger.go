package messenger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"github.com/julianbeese/estates/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Generator creates contact messages from templates
type Generator struct {
	template *template.Template
}

// TemplateData contains data for message template
type TemplateData struct {
	Title     string
	City      string
	District  string
	Street    string
	Price     string
	Rooms     int
	Area      float64
	AgentName string
}

// NewGenerator creates a generator from the template at templatePath. An
// empty or missing path falls back to the built-in template.
func NewGenerator(templatePath string) (*Generator, error) {
	content := []byte(defaultTemplate)
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		switch {
		case err == nil:
			content = data
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read template: %w", err)
		}
	}

	tmpl, err := template.New("message").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Generator{template: tmpl}, nil
}

// Generate creates the default inquiry message for a listing
func (g *Generator) Generate(listing *domain.Listing) (string, error) {
	data := TemplateData{
		Title:     listing.Title,
		City:      listing.Address.City,
		District:  listing.Address.District,
		Street:    listing.Address.Street,
		Price:     FormatPrice(listing.Price, listing.Currency),
		Rooms:     listing.Features.Rooms,
		Area:      listing.Features.Area,
		AgentName: listing.Agent.Name,
	}

	var buf bytes.Buffer
	if err := g.template.Execute(&buf, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

var printer = message.NewPrinter(language.BritishEnglish)

// FormatPrice renders a whole-unit price with thousands separators, e.g.
// "£250,000". Unknown currencies are prefixed with their code.
func FormatPrice(price float64, currency string) string {
	amount := printer.Sprintf("%d", int64(price+0.5))
	if currency == "" {
		currency = "GBP"
	}
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sym + amount
	}
	return strings.ToUpper(currency) + " " + amount
}

const defaultTemplate = `Hello, I am interested in your listing "{{.Title}}". Can I get more details?`

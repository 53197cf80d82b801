package reminders

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"gopkg.in/yaml.v3"
)

const defaultFooter = "Reply C to confirm, HELP for options, or STOP to opt out."

var defaultTemplates = map[enums.ReminderType]string{
	enums.ReminderThreeDaysBefore: "Hi {{.FirstName}}, I wanted to give you a heads up that I have you on {{.JobTitle}}{{with .CustomerName}} for {{.}}{{end}} on {{.Date}} at {{.Time}}.",
	enums.ReminderTwoDaysBefore:   "Hi {{.FirstName}}, just a reminder that I have you scheduled for {{.JobTitle}}{{with .CustomerName}} with {{.}}{{end}} on {{.Date}} at {{.Time}}.",
	enums.ReminderDayBefore:       "Hi {{.FirstName}}, I'm checking in about tomorrow. You're on {{.JobTitle}}{{with .CustomerName}} for {{.}}{{end}} on {{.Date}} starting at {{.Time}}. Can you confirm you'll be there?",
	enums.ReminderMorningOf:       "Good morning {{.FirstName}}! I'm looking forward to seeing you today at {{.Time}} for {{.JobTitle}}{{with .CustomerName}} with {{.}}{{end}}.",
	enums.ReminderHourBefore:      "Hi {{.FirstName}}, I'll see you soon. {{.JobTitle}}{{with .CustomerName}} for {{.}}{{end}} starts at {{.Time}}.",
	enums.ReminderFollowUp:        "Hi {{.FirstName}}, I haven't heard back about {{.JobTitle}}{{with .CustomerName}} for {{.}}{{end}} on {{.Date}} at {{.Time}}. Please let me know if you're still able to make it.",
}

const disclosureText = "{{with .CompanyName}}{{.}}: {{end}}You're receiving shift reminders by text. Reply STOP at any time to unsubscribe, START to resubscribe, or HELP for help. Msg & data rates may apply."

// MessageData is what templates can reference.
type MessageData struct {
	FirstName    string
	LastName     string
	JobTitle     string
	CustomerName string
	CompanyName  string
	Date         string
	Time         string
	ReminderType enums.ReminderType
}

// TemplateFile is the optional YAML override document.
type TemplateFile struct {
	Footer     *string           `yaml:"footer"`
	Disclosure string            `yaml:"disclosure"`
	Templates  map[string]string `yaml:"templates"`
}

// Composer renders reminder bodies keyed by reminder type.
type Composer struct {
	templates  map[enums.ReminderType]*template.Template
	disclosure *template.Template
	footer     string
	loc        *time.Location
}

// NewComposer builds a composer from the defaults, applying overrides when
// overridesPath is set. Dates and times render in loc.
func NewComposer(loc *time.Location, overridesPath string) (*Composer, error) {
	if loc == nil {
		loc = time.UTC
	}
	sources := make(map[enums.ReminderType]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		sources[k] = v
	}
	footer := defaultFooter
	disclosure := disclosureText

	if strings.TrimSpace(overridesPath) != "" {
		raw, err := os.ReadFile(overridesPath)
		if err != nil {
			return nil, fmt.Errorf("read reminder templates: %w", err)
		}
		var file TemplateFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode reminder templates: %w", err)
		}
		for name, body := range file.Templates {
			rt := enums.ReminderType(strings.ToUpper(strings.TrimSpace(name)))
			if !rt.IsValid() {
				return nil, fmt.Errorf("unknown reminder type %q in templates", name)
			}
			sources[rt] = body
		}
		if file.Footer != nil {
			footer = strings.TrimSpace(*file.Footer)
		}
		if strings.TrimSpace(file.Disclosure) != "" {
			disclosure = file.Disclosure
		}
	}

	c := &Composer{
		templates: make(map[enums.ReminderType]*template.Template, len(sources)),
		footer:    footer,
		loc:       loc,
	}
	for rt, body := range sources {
		tmpl, err := template.New(string(rt)).Option("missingkey=zero").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", rt, err)
		}
		c.templates[rt] = tmpl
	}
	tmpl, err := template.New("disclosure").Parse(disclosure)
	if err != nil {
		return nil, fmt.Errorf("parse disclosure template: %w", err)
	}
	c.disclosure = tmpl
	return c, nil
}

// Compose renders the body for rt followed by the reply-keyword footer.
func (c *Composer) Compose(rt enums.ReminderType, a Assignment) (string, error) {
	tmpl, ok := c.templates[rt]
	if !ok {
		tmpl, ok = c.templates[enums.ReminderFollowUp]
		if !ok {
			return "", fmt.Errorf("no template for %s", rt)
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c.data(rt, a)); err != nil {
		return "", fmt.Errorf("render %s: %w", rt, err)
	}
	body := strings.TrimSpace(buf.String())
	if c.footer != "" {
		body += "\n\n" + c.footer
	}
	return body, nil
}

// Disclosure renders the one-time opt-out instructions.
func (c *Composer) Disclosure(a Assignment) (string, error) {
	var buf bytes.Buffer
	if err := c.disclosure.Execute(&buf, c.data("", a)); err != nil {
		return "", fmt.Errorf("render disclosure: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (c *Composer) data(rt enums.ReminderType, a Assignment) MessageData {
	firstName := strings.TrimSpace(a.FirstName)
	if firstName == "" {
		firstName = "there"
	}
	jobTitle := strings.TrimSpace(a.JobTitle)
	if jobTitle == "" {
		jobTitle = "your shift"
	}
	data := MessageData{
		FirstName:    firstName,
		LastName:     strings.TrimSpace(a.LastName),
		JobTitle:     jobTitle,
		CustomerName: strings.TrimSpace(a.CustomerName),
		CompanyName:  strings.TrimSpace(a.CompanyName),
		ReminderType: rt,
	}
	if !a.StartsAt.IsZero() {
		local := a.StartsAt.In(c.loc)
		data.Date = local.Format("Monday, January 2")
		data.Time = local.Format("3:04 PM")
	} else if !a.WorkDate.IsZero() {
		data.Date = a.WorkDate.In(c.loc).Format("Monday, January 2")
	}
	return data
}

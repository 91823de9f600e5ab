// Package command parses chat messages such as "/bee \hat <:blob:1234>"
// into a chain of template renders.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/youruser/beebot/internal/template"
)

// ErrNoCommand means the message is not addressed to the bot.
var ErrNoCommand = errors.New("no command")

var (
	commandRe = regexp.MustCompile(`^([/\\])(\w+)\b`)
	emoteRe   = regexp.MustCompile(`<(a?):(\w+):(\d+)>`)
)

// Step is one template application. FlipH is set for commands written
// with a backslash.
type Step struct {
	Name      string
	FlipH     bool
	Templates []*template.Template
}

// Result of parsing a message. Either Reply is set (a text command) or
// Steps holds at least one render.
type Result struct {
	Reply string
	Steps []Step
}

// Names concatenates the step names, which is how output files are named.
func (r *Result) Names() string {
	var b strings.Builder
	for _, s := range r.Steps {
		b.WriteString(s.Name)
	}
	return b.String()
}

// FileName is base plus the command names with ext appended.
func (r *Result) FileName(base, ext string) string {
	return base + r.Names() + "." + ext
}

// Parser is safe for concurrent use.
type Parser struct {
	catalog      *template.Catalog
	maxTemplates int
	replies      map[string]string
}

// NewParser returns a parser applying at most maxTemplates templates per
// message. inviteLink is appended to the help text when set.
func NewParser(catalog *template.Catalog, maxTemplates int, inviteLink string) *Parser {
	if maxTemplates < 1 {
		maxTemplates = 1
	}
	names := catalog.Names()
	for i, n := range names {
		names[i] = "/" + n
	}
	help := fmt.Sprintf("Available commands: %s.\nUse \\\\<command> to flip the template horizontally.", strings.Join(names, ", "))
	replies := map[string]string{"help": help, "beebot": help}
	if inviteLink != "" {
		invite := fmt.Sprintf("Invite link: <%s>", inviteLink)
		replies["invite"] = invite
		replies["help"] += "\n" + invite
		replies["beebot"] = replies["help"]
	}
	return &Parser{catalog: catalog, maxTemplates: maxTemplates, replies: replies}
}

// Parse reads the message left to right. Tokens that look like commands but
// name no template are skipped. The first token must be a command.
func (p *Parser) Parse(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if m := commandRe.FindStringSubmatch(text); m != nil {
		if reply, ok := p.replies[m[2]]; ok {
			if m[1] == `\` {
				reply = reverse(reply)
			}
			return &Result{Reply: reply}, nil
		}
	}

	res := &Result{}
	for i, tok := range strings.Split(text, " ") {
		if len(res.Steps) >= p.maxTemplates {
			break
		}
		m := commandRe.FindStringSubmatch(tok)
		if m == nil {
			if i == 0 {
				return nil, ErrNoCommand
			}
			continue
		}
		tpls, ok := p.catalog.Get(m[2])
		if !ok {
			continue
		}
		res.Steps = append(res.Steps, Step{Name: m[2], FlipH: m[1] == `\`, Templates: tpls})
	}
	if len(res.Steps) == 0 {
		return nil, ErrNoCommand
	}
	return res, nil
}

// Emote is a custom chat emoji referenced in a message.
type Emote struct {
	Name string
	ID   string
	URL  string
	Ext  string
}

// FindEmote returns the first custom emote in text. Animated emotes are
// served as GIF, others as PNG.
func FindEmote(text string) (Emote, bool) {
	m := emoteRe.FindStringSubmatch(text)
	if m == nil {
		return Emote{}, false
	}
	ext := "png"
	if m[1] == "a" {
		ext = "gif"
	}
	return Emote{
		Name: m[2],
		ID:   m[3],
		URL:  fmt.Sprintf("https://cdn.discordapp.com/emojis/%s.%s", m[3], ext),
		Ext:  ext,
	}, true
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/ubuntu/ddp-insights/internal/flow"
	"github.com/ubuntu/ddp-insights/internal/table"
)

// terminalUI renders flow requests on a terminal.
//
// An empty answer, or the end of the input, picks the default of each prompt.
type terminalUI struct {
	out  io.Writer
	lang string

	// archive is returned for the first file request only.
	archive string
	// yes answers every prompt without asking: retries are declined and questionnaires skipped.
	yes bool
	// consent accepts the consent form without asking.
	consent bool
	// exclude lists the tables removed from an accepted donation.
	exclude []string
	// preview is the number of rows printed per table.
	preview int

	in    io.Reader
	once  sync.Once
	lines chan string
	stop  chan struct{}
}

type terminalConfig struct {
	lang    string
	archive string
	yes     bool
	consent bool
	exclude []string
	preview int
}

func newTerminalUI(in io.Reader, out io.Writer, c terminalConfig) *terminalUI {
	return &terminalUI{
		out:     out,
		lang:    c.lang,
		archive: c.archive,
		yes:     c.yes,
		consent: c.consent,
		exclude: c.exclude,
		preview: c.preview,
		in:      in,
		stop:    make(chan struct{}),
	}
}

// Render implements flow.UI.
func (u *terminalUI) Render(ctx context.Context, r flow.Request) (flow.Payload, error) {
	fmt.Fprintf(u.out, "\n== %s ==\n", r.Header.Text(u.lang))

	switch b := r.Body.(type) {
	case flow.FileInput:
		return u.fileInput(ctx, b)
	case flow.Confirm:
		return u.confirm(ctx, b)
	case flow.Radio:
		return u.radio(ctx, b)
	case flow.ConsentForm:
		return u.consentForm(ctx, b)
	case flow.Questionnaire:
		return u.questionnaire(ctx, b)
	}
	return flow.Skip(), nil
}

// Close stops reading the input.
func (u *terminalUI) Close() {
	close(u.stop)
}

func (u *terminalUI) fileInput(ctx context.Context, b flow.FileInput) (flow.Payload, error) {
	if u.archive != "" {
		path := u.archive
		u.archive = ""
		fmt.Fprintf(u.out, "Using %s\n", path)
		return flow.String(path), nil
	}
	if u.yes {
		return flow.Skip(), nil
	}

	fmt.Fprintln(u.out, b.Description.Text(u.lang))
	path, err := u.ask(ctx, "Path to the archive (empty to skip): ")
	if err != nil || path == "" {
		return flow.Skip(), err
	}
	return flow.String(path), nil
}

func (u *terminalUI) confirm(ctx context.Context, b flow.Confirm) (flow.Payload, error) {
	fmt.Fprintln(u.out, b.Text.Text(u.lang))
	if u.yes {
		fmt.Fprintf(u.out, "%s\n", b.Cancel.Text(u.lang))
		return flow.False(), nil
	}

	ok, err := u.askYesNo(ctx, fmt.Sprintf("%s? [y/N] ", b.Ok.Text(u.lang)))
	if err != nil {
		return flow.Payload{}, err
	}
	if ok {
		return flow.True(), nil
	}
	return flow.False(), nil
}

func (u *terminalUI) radio(ctx context.Context, b flow.Radio) (flow.Payload, error) {
	if len(b.Items) == 0 {
		return flow.Skip(), nil
	}

	if d := b.Description.Text(u.lang); d != "" {
		fmt.Fprintln(u.out, d)
	}
	for i, it := range b.Items {
		fmt.Fprintf(u.out, "  %d) %s\n", i+1, it.Value)
	}
	if u.yes {
		return flow.String(b.Items[0].Value), nil
	}

	for {
		answer, err := u.ask(ctx, "Pick one [1]: ")
		if err != nil {
			return flow.Payload{}, err
		}
		if answer == "" {
			return flow.String(b.Items[0].Value), nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(b.Items) {
			return flow.String(b.Items[n-1].Value), nil
		}
		fmt.Fprintf(u.out, "Please answer a number between 1 and %d.\n", len(b.Items))
	}
}

func (u *terminalUI) consentForm(ctx context.Context, b flow.ConsentForm) (flow.Payload, error) {
	fmt.Fprintln(u.out, b.Description.Text(u.lang))
	for _, t := range b.Tables {
		u.printTable(t)
	}

	accept := u.yes || u.consent
	if !accept {
		var err error
		accept, err = u.askYesNo(ctx, fmt.Sprintf("%s [y/N] ", b.DonateQuestion.Text(u.lang)))
		if err != nil {
			return flow.Payload{}, err
		}
	}
	if !accept {
		return flow.False(), nil
	}

	if len(u.exclude) == 0 {
		return flow.True(), nil
	}
	data, err := json.Marshal(map[string][]string{"tables": u.exclude})
	if err != nil {
		return flow.Payload{}, fmt.Errorf("could not encode excluded tables: %v", err)
	}
	return flow.JSON(string(data)), nil
}

func (u *terminalUI) printTable(t table.ExtractedTable) {
	fmt.Fprintf(u.out, "\n%s (%s, %d rows)\n", t.Title.Text(u.lang), t.ID, t.Frame.Len())
	if u.preview <= 0 || t.Frame.Empty() {
		return
	}

	w := tabwriter.NewWriter(u.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Frame.Columns, "\t"))
	for i, row := range t.Frame.Rows {
		if i == u.preview {
			fmt.Fprintln(w, "...")
			break
		}
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, cellText(c))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	s := strings.Join(strings.Fields(fmt.Sprint(v)), " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:39]) + "…"
	}
	return s
}

func (u *terminalUI) questionnaire(ctx context.Context, b flow.Questionnaire) (flow.Payload, error) {
	if u.yes {
		return flow.Skip(), nil
	}

	fmt.Fprintln(u.out, b.Description.Text(u.lang))
	answers := make(map[string]any)
	for _, q := range b.Questions {
		fmt.Fprintf(u.out, "\n%d. %s\n", q.ID, q.Question.Text(u.lang))
		for i, c := range q.Choices {
			fmt.Fprintf(u.out, "  %d) %s\n", i+1, c.Text(u.lang))
		}

		prompt := "> "
		if q.Kind == flow.QuestionCheckbox {
			prompt = "Comma separated choices> "
		}
		answer, err := u.ask(ctx, prompt)
		if err != nil {
			return flow.Payload{}, err
		}
		if answer == "" {
			continue
		}

		switch q.Kind {
		case flow.QuestionMultipleChoice:
			if c, ok := choice(q.Choices, answer, u.lang); ok {
				answers[strconv.Itoa(q.ID)] = c
			}
		case flow.QuestionCheckbox:
			var picked []string
			for _, a := range strings.Split(answer, ",") {
				if c, ok := choice(q.Choices, strings.TrimSpace(a), u.lang); ok {
					picked = append(picked, c)
				}
			}
			if len(picked) > 0 {
				answers[strconv.Itoa(q.ID)] = picked
			}
		default:
			answers[strconv.Itoa(q.ID)] = answer
		}
	}

	if len(answers) == 0 {
		return flow.Skip(), nil
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return flow.Payload{}, fmt.Errorf("could not encode answers: %v", err)
	}
	return flow.JSON(string(data)), nil
}

// choice returns the text of the 1 based choice number answer.
func choice(choices []table.Translatable, answer, lang string) (string, bool) {
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(choices) {
		return "", false
	}
	return choices[n-1].Text(lang), true
}

func (u *terminalUI) askYesNo(ctx context.Context, prompt string) (bool, error) {
	answer, err := u.ask(ctx, prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "j", "ja":
		return true, nil
	}
	return false, nil
}

// ask prints prompt and returns the next trimmed input line.
// It returns an empty answer once the input is exhausted.
func (u *terminalUI) ask(ctx context.Context, prompt string) (string, error) {
	u.once.Do(u.readLines)
	fmt.Fprint(u.out, prompt)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-u.lines:
		if !ok {
			fmt.Fprintln(u.out)
			return "", nil
		}
		return strings.TrimSpace(l), nil
	}
}

// readLines feeds the input lines to u.lines until the input ends or Close is called.
func (u *terminalUI) readLines() {
	u.lines = make(chan string)
	go func() {
		defer close(u.lines)
		s := bufio.NewScanner(u.in)
		for s.Scan() {
			select {
			case u.lines <- s.Text():
			case <-u.stop:
				return
			}
		}
	}()
}

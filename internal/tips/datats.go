package tips

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"
)

// dataTSTemplate renders the TypeScript module consumed by the web app.
var dataTSTemplate = template.Must(template.New("data.ts").Parse(`export interface Tip {
  id: number;
  category: string;
  source: string;
  title: string;
  content: string;
}

export const tips: Tip[] = {{.TipsJSON}};

export const categoryColors: Record<string, { bg: string; text: string }> = {
{{- range .Colors}}
  {{.Key}}: { bg: "{{.Bg}}", text: "{{.Text}}" },
{{- end}}
};
`))

type colorRow struct {
	Key  string
	Bg   string
	Text string
}

// tsKey renders an object key, quoting it only when it is not a bare identifier.
func tsKey(c Category) string {
	s := string(c)
	if strings.ContainsAny(s, " -") {
		return strconv.Quote(s)
	}
	return s
}

// RenderDataTS renders the full typed-data module for all tips.
func RenderDataTS(all []Tip) ([]byte, error) {
	blob, err := Marshal(all)
	if err != nil {
		return nil, err
	}
	rows := make([]colorRow, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		st := c.Style()
		rows = append(rows, colorRow{Key: tsKey(c), Bg: st.Bg, Text: st.Text})
	}

	var buf bytes.Buffer
	err = dataTSTemplate.Execute(&buf, struct {
		TipsJSON string
		Colors   []colorRow
	}{
		TipsJSON: strings.TrimRight(string(blob), "\n"),
		Colors:   rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render data.ts: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDataTS regenerates the typed-data module at path.
func WriteDataTS(path string, all []Tip) error {
	data, err := RenderDataTS(all)
	if err != nil {
		return err
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("write data.ts: %w", err)
	}
	slog.Info("tips: regenerated data module", slog.String("path", path))
	return nil
}

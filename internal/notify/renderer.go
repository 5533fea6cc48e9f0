package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"contesthub/internal/types"
)

// digestTemplate renders the daily upcoming-contest email. Times are shown
// in the notification timezone so recipients see wall-clock values they can
// act on.
var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
  <h2>Contests starting {{.Date}}</h2>
  <p>Hi {{.Username}}, these contests kick off tomorrow:</p>
  <ul>
  {{- range .Contests}}
    <li>
      <strong>{{.Platform}}</strong>: <a href="{{.URL}}">{{.Name}}</a>
      at {{.StartLocal}} ({{.DurationMinutes}} min)
    </li>
  {{- end}}
  </ul>
  <p>Good luck!</p>
</body>
</html>`))

type digestContest struct {
	Platform        types.Platform
	Name            string
	URL             string
	StartLocal      string
	DurationMinutes int
}

type digestData struct {
	Username string
	Date     string
	Contests []digestContest
}

// RenderDigest produces the subject and HTML body for one recipient's daily
// digest. loc is the notification timezone.
func RenderDigest(username string, contests []types.Contest, windowStart time.Time, loc *time.Location) (subject, html string, err error) {
	data := digestData{
		Username: username,
		Date:     windowStart.In(loc).Format("Monday, Jan 2"),
		Contests: make([]digestContest, 0, len(contests)),
	}
	for _, c := range contests {
		data.Contests = append(data.Contests, digestContest{
			Platform:        c.Platform,
			Name:            c.Name,
			URL:             c.URL,
			StartLocal:      c.StartTime.In(loc).Format("15:04 MST"),
			DurationMinutes: c.DurationMinutes,
		})
	}

	var buf strings.Builder
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("rendering digest template: %w", err)
	}

	noun := "contests"
	if len(contests) == 1 {
		noun = "contest"
	}
	subject = fmt.Sprintf("%d %s starting %s", len(contests), noun, data.Date)
	return subject, buf.String(), nil
}

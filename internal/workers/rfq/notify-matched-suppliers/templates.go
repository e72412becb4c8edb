package notifymatchedsuppliers

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

type invitationData struct {
	ProjectName    string
	ProjectAddress string
	Wave           string
	RespondBy      string
	Material       string
	Score          float64
	DistanceMiles  float64
	TotalCarbonKg  float64
	Reasons        []string
	QuoteURL       string
}

const invitationText = `{{.Wave}} - {{.RespondBy}}

You've received a new RFQ!

Project: {{.ProjectName}}
Material: {{.Material}}
{{if .ProjectAddress}}Location: {{.ProjectAddress}}
{{end}}Match score: {{printf "%.1f" .Score}} ({{printf "%.0f" .DistanceMiles}} miles, {{printf "%.1f" .TotalCarbonKg}} kg CO2e)
{{range .Reasons}}- {{.}}
{{end}}
Submit your quote: {{.QuoteURL}}
`

const invitationHTML = `<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;">
<p style="color: #065f46; font-size: 14px;"><strong>{{.Wave}}</strong> &bull; {{.RespondBy}}</p>
<h2 style="color: #111827; font-size: 18px;">You've received a new RFQ!</h2>
<div style="background: #f0fdf4; border-radius: 8px; padding: 16px;">
<p><strong>Project:</strong> {{.ProjectName}}</p>
<p><strong>Material:</strong> {{.Material}}</p>
{{if .ProjectAddress}}<p><strong>Location:</strong> {{.ProjectAddress}}</p>{{end}}
<p><strong>Match score:</strong> {{printf "%.1f" .Score}}</p>
</div>
{{if .Reasons}}<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>{{end}}
<p><a href="{{.QuoteURL}}">Submit your quote</a></p>
</div>`

var (
	textTmpl = texttemplate.Must(texttemplate.New("invitation.txt").Parse(invitationText))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("invitation.html").Parse(invitationHTML))
)

// waveLabel names the invitation wave a tier belongs to.
func waveLabel(tier int) string {
	switch tier {
	case 1:
		return "Premium Priority"
	case 2:
		return "Standard Access"
	default:
		return "Open Access"
	}
}

func respondBy(deadline *time.Time) string {
	if deadline == nil || deadline.IsZero() {
		return "Respond soon for best consideration"
	}
	return "Respond by " + deadline.UTC().Format("Jan 2, 3:04 PM MST")
}

func projectTitle(input *Input) string {
	if input.ProjectName != "" {
		return input.ProjectName
	}
	return "Sustainable Materials Request"
}

func (h *Handler) renderInvitation(input *Input, m models.MatchResult) (subject, text, html string, err error) {
	data := invitationData{
		ProjectName:    projectTitle(input),
		ProjectAddress: input.ProjectAddress,
		Wave:           waveLabel(m.Tier),
		RespondBy:      respondBy(input.Deadline),
		Material:       m.MaterialType,
		Score:          m.Score,
		DistanceMiles:  m.DistanceMiles,
		TotalCarbonKg:  m.TotalCarbonKg,
		Reasons:        m.WhyRecommended,
		QuoteURL:       strings.TrimRight(h.config.PortalBaseURL, "/") + "/supplier/rfqs/" + input.RFQID,
	}

	var textBuf, htmlBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", "", err
	}
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", "", err
	}
	return "New RFQ: " + data.ProjectName, textBuf.String(), htmlBuf.String(), nil
}

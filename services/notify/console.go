package notifysvc

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/masomo-console/core"
)

var (
	successColor = lipgloss.Color("#00C853")
	warningColor = lipgloss.Color("#FFD600")
	errorColor   = lipgloss.Color("#FF1744")
	infoColor    = lipgloss.Color("#00E5FF")
)

type console struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[core.Level]lipgloss.Style
}

var _ core.Notifier = (*console)(nil)

// NewConsole returns a Notifier printing one styled line per notification to out.
// Colors are dropped when out is not a terminal.
func NewConsole(out io.Writer) core.Notifier {
	r := lipgloss.NewRenderer(out)
	label := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(c)
	}
	return &console{
		out: out,
		styles: map[core.Level]lipgloss.Style{
			core.LevelInfo:    label(infoColor),
			core.LevelSuccess: label(successColor),
			core.LevelWarning: label(warningColor),
			core.LevelError:   label(errorColor),
		},
	}
}

func (svc *console) Notify(n core.Notification) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	tag := svc.styles[n.Level].Render(fmt.Sprintf("[%s]", n.Level))
	_, _ = fmt.Fprintf(svc.out, "%s %s\n", tag, n.Message)
}

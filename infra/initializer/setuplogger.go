package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoTxtColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnTxtColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorTxtColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugTxtColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *config.Log) *slog.Logger {
	return setupLogger(os.Stdout, cfg)
}

func setupLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatterFor(cfg.Format),
	})
	logger.SetStyles(ledgerStyles())

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}

func formatterFor(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func ledgerStyles() *log.Styles {
	styles := log.DefaultStyles()

	levels := map[log.Level]struct {
		icon  string
		color lipgloss.AdaptiveColor
	}{
		log.ErrorLevel: {"❌", errorTxtColor},
		log.WarnLevel:  {"⚠️", warnTxtColor},
		log.InfoLevel:  {"ℹ️", infoTxtColor},
		log.DebugLevel: {"🐛", debugTxtColor},
	}
	for level, s := range levels {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(s.icon).
			Bold(true).
			Padding(0, 1).
			Foreground(s.color)
	}

	// money and identity fields stand out in text output
	keys := map[string]lipgloss.AdaptiveColor{
		"error":      errorTxtColor,
		"cause":      errorTxtColor,
		"operation":  warnTxtColor,
		"account_id": infoTxtColor,
		"balance":    infoTxtColor,
		"amount":     infoTxtColor,
		"prefix":     debugTxtColor,
		"caller":     debugTxtColor,
		"time":       debugTxtColor,
	}
	for key, color := range keys {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(color)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	return styles
}

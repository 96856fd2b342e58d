package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/managed/component"
	"github.com/kbukum/managed/di"
	"github.com/kbukum/managed/logger"
)

// ExporterInfo represents a telemetry exporter started by the app.
type ExporterInfo struct {
	Name   string
	Target string
	Status string
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	exporters       []ExporterInfo
	out             io.Writer
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		exporters:   make([]ExporterInfo, 0),
		out:         os.Stdout,
	}
}

// SetOutput redirects the printed summary.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackExporter records a telemetry exporter.
func (s *Summary) TrackExporter(name, target, status string) {
	s.exporters = append(s.exporters, ExporterInfo{
		Name:   name,
		Target: target,
		Status: status,
	})
}

// DisplaySummary prints the bootstrap summary: exporters, bindings with their
// dependencies, constructed instances and live health from the container.
func (s *Summary) DisplaySummary(c *di.Container, log *logger.Logger) {
	w := s.out
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.exporters) > 0 {
		fmt.Fprintf(w, "🔌 Telemetry\n")
		for i, e := range s.exporters {
			fmt.Fprintf(w, "   %s %s %s → %s\n", branch(i, len(s.exporters)), statusIcon(e.Status), e.Name, e.Target)
		}
		fmt.Fprintf(w, "\n")
	}

	bindings := c.Bindings()
	fmt.Fprintf(w, "📦 Bindings (%d)\n", len(bindings))
	for i, b := range bindings {
		last := i == len(bindings)-1
		fmt.Fprintf(w, "   %s %s %s [%s]\n", branch(i, len(bindings)), scopeIcon(b.Scope, b.External), b.Key, b.Scope)
		for j, dep := range b.Dependencies {
			depPrefix := "│   ├──"
			if last {
				depPrefix = "    ├──"
			}
			if j == len(b.Dependencies)-1 {
				if last {
					depPrefix = "    └──"
				} else {
					depPrefix = "│   └──"
				}
			}
			fmt.Fprintf(w, "   %s 🔗 %s\n", depPrefix, dep)
		}
	}

	instances := c.Instances()
	if len(instances) > 0 {
		fmt.Fprintf(w, "\n🧩 Instances (%d)\n", len(instances))
		for i, inst := range instances {
			fmt.Fprintf(w, "   %s %s (%s)\n", branch(i, len(instances)), inst.Key, inst.Type)
		}
	}

	healthResults := c.Health(context.Background())
	if len(healthResults) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range healthResults {
			msg := ""
			if h.Message != "" {
				msg = fmt.Sprintf(" (%s)", h.Message)
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", branch(i, len(healthResults)), healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}

	fmt.Fprintf(w, "\n")

	if log != nil {
		log.Info("Startup summary", logger.Fields(
			logger.FieldContainerID, c.ID(),
			logger.FieldBindings, len(bindings),
			"instances", len(instances),
			"health", string(component.Overall(healthResults)),
			logger.FieldDuration, s.startupDuration.Milliseconds(),
		))
	}
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string) string {
	switch status {
	case "active", "connected", "healthy":
		return "✅"
	case "inactive", "disabled":
		return "⏸️"
	case "error", "failed":
		return "❌"
	default:
		return "⚠️"
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}

func scopeIcon(scope string, external bool) string {
	if external {
		return "📎"
	}
	switch scope {
	case "singleton":
		return "📌"
	case "transient":
		return "♻️"
	default:
		return "💼"
	}
}

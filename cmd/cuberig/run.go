package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/cuberig/pkg/gamepad"
	"github.com/gwillem/cuberig/pkg/rig"
	"github.com/gwillem/cuberig/pkg/robot"
	"github.com/gwillem/cuberig/pkg/teleop"
)

type RunCommand struct {
	Headless bool `long:"headless" description:"Print log lines instead of showing the dashboard"`
	Simulate bool `long:"simulate" description:"Drive a simulated rig instead of the servos"`
}

const (
	headerHeight = 2 // title + blank line
	panelHeight  = 2 // state row + blank
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Series colors
var seriesColors = map[robot.MotorName]string{
	robot.Table: "51",  // cyan
	robot.Claw:  "201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type runModel struct {
	ctrl     *teleop.Controller
	chart    *streamlinechart.Model
	source   string // port or "simulated"
	width    int    // terminal width
	height   int    // terminal height
	logs     []string
	snapshot *teleop.Snapshot
	clawHold int
	quitting bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.Snapshot
type logMsg string
type terminatedMsg struct{}

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func waitForTerminate(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Terminated()
		return terminatedMsg{}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - panelHeight - legendHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialRunModel(ctrl *teleop.Controller, source string, clawHold int) runModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(0, 360),
	)

	for _, name := range robot.AllMotors() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:     ctrl,
		chart:    &chart,
		source:   source,
		clawHold: clawHold,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
		waitForTerminate(m.ctrl),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Terminate()
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.ctrl.Dispatch(rig.FlushQueue)
		}

	case stateMsg:
		snap := teleop.Snapshot(msg)
		m.snapshot = &snap
		m.chart.PushDataSet(string(robot.Table), float64(snap.State.Orientation()))
		claw := 0.0
		if snap.State.ClawHolding {
			claw = float64(m.clawHold)
		}
		m.chart.PushDataSet(string(robot.Claw), claw)
		m.chart.DrawAll()
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)

	case terminatedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Rig stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Cube Rig"))
	sb.WriteString(" - " + m.source)
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// State panel
	sb.WriteString(m.renderState())
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit, 'f' to flush the queue")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) renderState() string {
	if m.snapshot == nil {
		return statusStyle.Render(fmt.Sprintf("Waiting for the first action (queued: %d)", m.ctrl.Queued()))
	}
	s := m.snapshot
	claw := "open"
	if s.State.ClawHolding {
		claw = "holding"
	}
	line := fmt.Sprintf("Table %s  Claw %s  Queued %s  Last %s",
		valueStyle.Render(fmt.Sprintf("%d°", s.State.Orientation())),
		valueStyle.Render(claw),
		valueStyle.Render(fmt.Sprintf("%d", s.Queued)),
		valueStyle.Render(s.Action.String()),
	)
	if s.Error != nil {
		line += "  " + errorStyle.Render(s.Error.Error())
	}
	return line
}

func renderLegend() string {
	var items []string
	for _, name := range robot.AllMotors() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+string(name))
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg := loadConfig()
	if c.Simulate {
		cfg.Simulate = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	keymap, err := rig.KeymapFromBindings(cfg.Buttons)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid button bindings: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if !cfg.Simulate && !robot.ConfigExists(configPath()) {
		fmt.Fprintf(os.Stderr, "No configuration found at %s, using defaults.\n", configPath())
		fmt.Fprintln(os.Stderr, "Run 'cuberig setup' first, or try 'cuberig run --simulate'.")
	}

	drv, err := openDriver(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to rig: %v", err)
	}

	ctrl, err := teleop.NewController(teleop.Config{
		Driver:     drv,
		Keymap:     keymap,
		Executor:   executorConfig(cfg),
		QueueDepth: cfg.QueueDepth,
	})
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	stop := startController(ctx, ctrl, drv)
	defer stop()

	pad := &gamepad.Source{Device: cfg.Gamepad}
	go pad.Run(ctx, gamepad.Handlers{
		Added:   ctrl.DeviceAdded,
		Removed: ctrl.DeviceRemoved,
		Key:     ctrl.HandleButton,
	})

	source := cfg.Port
	if cfg.Simulate {
		source = "simulated"
	} else if source == "" {
		source = "auto-detected port"
	}

	if c.Headless {
		runHeadless(ctx, ctrl)
		return nil
	}

	p := tea.NewProgram(initialRunModel(ctrl, source, cfg.ClawHold), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
	return nil
}

// startController runs ctrl in the background. The returned stop function
// cancels it and waits for the executor to return before closing drv, so
// no command reaches a closed bus.
func startController(ctx context.Context, ctrl *teleop.Controller, drv io.Closer) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Controller error: %v", err)
		}
	}()

	return func() {
		cancel()
		<-done
		if err := drv.Close(); err != nil {
			log.Printf("Failed to close rig: %v", err)
		}
	}
}

// runHeadless prints controller logs until the rig is terminated or the
// process is interrupted, halting the motors on interrupt.
func runHeadless(ctx context.Context, ctrl *teleop.Controller) {
	logger := log.New(os.Stdout, "", 0)
	for {
		select {
		case msg := <-ctrl.Logs():
			logger.Println(msg)
		case <-ctrl.Terminated():
			drainLogs(ctrl, logger)
			return
		case <-ctx.Done():
			ctrl.Terminate()
			drainLogs(ctrl, logger)
			return
		}
	}
}

func drainLogs(ctrl *teleop.Controller, logger *log.Logger) {
	for {
		select {
		case msg := <-ctrl.Logs():
			logger.Println(msg)
		default:
			return
		}
	}
}

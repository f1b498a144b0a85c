package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwillem/cuberig/pkg/robot"
)

type JogCommand struct {
	Motor    string `short:"m" long:"motor" default:"table" choice:"table" choice:"claw" description:"Motor to jog"`
	Simulate bool   `long:"simulate" description:"Jog a simulated rig"`
}

type jogModel struct {
	drv      driver
	motor    robot.MotorName
	step     int
	power    uint
	expected int
	measured int
	moving   bool
	err      error
	quitting bool
}

type jogTickMsg time.Time

func jogTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return jogTickMsg(t)
	})
}

func (m jogModel) Init() tea.Cmd {
	return jogTick()
}

func (m jogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.drv.HaltAll(ctx)
			m.quitting = true
			return m, tea.Quit
		case "w", "up":
			m.jog(ctx, m.step)
		case "s", "down":
			m.jog(ctx, -m.step)
		}

	case jogTickMsg:
		if idle, err := m.drv.Idle(ctx, m.motor); err == nil {
			m.moving = !idle
		}
		if deg, err := m.drv.Degrees(ctx, m.motor); err == nil {
			m.measured = deg
		}
		return m, jogTick()
	}

	return m, nil
}

func (m *jogModel) jog(ctx context.Context, degrees int) {
	if m.moving {
		return
	}
	m.err = m.drv.Issue(ctx, m.motor, degrees, m.power)
	if m.err == nil {
		m.expected += degrees
		m.moving = true
	}
}

func (m jogModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Jog " + string(m.motor)))
	sb.WriteString("\n\n")

	status := "idle"
	if m.moving {
		status = "moving"
	}
	sb.WriteString(fmt.Sprintf("  Expected  %s\n", valueStyle.Render(fmt.Sprintf("%d°", m.expected))))
	sb.WriteString(fmt.Sprintf("  Measured  %s\n", valueStyle.Render(fmt.Sprintf("%d°", m.measured))))
	sb.WriteString(fmt.Sprintf("  Status    %s\n", status))
	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("w/s turn ±%d°, q to quit", m.step)))
	sb.WriteString("\n")

	return sb.String()
}

func (c *JogCommand) Execute(args []string) error {
	cfg := loadConfig()
	if c.Simulate {
		cfg.Simulate = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	drv, err := openDriver(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to rig: %v", err)
	}
	defer drv.Close()

	motor := robot.MotorName(c.Motor)
	start, err := drv.Degrees(context.Background(), motor)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", motor, err)
	}

	model := jogModel{
		drv:      drv,
		motor:    motor,
		step:     cfg.QuarterTurn,
		power:    cfg.Power,
		expected: start,
		measured: start,
	}
	if _, err := tea.NewProgram(model).Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
	return nil
}

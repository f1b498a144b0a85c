package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/cuberig/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxServoID is the highest bus ID scanned during setup.
const maxServoID = 10

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Cube Rig Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg := loadConfig()
	known := robot.Calibration{}
	if robot.ConfigExists(configPath()) {
		known = cfg.Motors
	}

	// Step 1: find the bus
	bus, port, servos := findBus(scanLimit(known))
	defer bus.Close()
	cfg.Port = port
	cfg.Simulate = false

	// Step 2: identify table and claw
	cal := identifyMotors(bus, servos, known)

	// Step 3: record home positions
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Home Position ━━━"))
	fmt.Println()
	recordHome(bus, cal)

	cfg.Motors = cal
	if err := cfg.SaveTo(configPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", configPath())
	fmt.Println()
	fmt.Println("Start the rig with: " + headerStyle.Render("cuberig run"))

	return nil
}

// scanLimit returns the highest servo ID to scan: maxServoID, or higher if
// the existing configuration uses a higher ID.
func scanLimit(cal robot.Calibration) int {
	limit := maxServoID
	for _, id := range cal.MotorIDs() {
		limit = max(limit, id)
	}
	return limit
}

// findBus returns the first serial port with at least two servos on it.
func findBus(lastID int) (*feetech.Bus, string, []feetech.FoundServo) {
	fmt.Println("Scanning for servos...")
	fmt.Println()

	ports, err := robot.CandidatePorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	for _, port := range ports {
		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := bus.Scan(ctx, 1, lastID)
		cancel()

		if err != nil || len(servos) < len(robot.AllMotors()) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		return bus, port, servos
	}

	fmt.Println("No rig found.")
	fmt.Println("Make sure the servo board is connected and powered on.")
	os.Exit(1)
	return nil, "", nil
}

// identifyMotors wiggles each servo and asks which motor it drives. The
// current calibration is only used to label servos it already knows.
func identifyMotors(bus *feetech.Bus, servos []feetech.FoundServo, current robot.Calibration) robot.Calibration {
	cal := make(robot.Calibration)

	for _, s := range servos {
		var needed []robot.MotorName
		for _, name := range robot.AllMotors() {
			if _, ok := cal[name]; !ok {
				needed = append(needed, name)
			}
		}
		if len(needed) == 0 {
			break
		}

		servo := feetech.NewServo(bus, s.ID, s.Model)
		wiggle(servo, s.ID)

		role := askRole(s.ID, needed, current)
		if role == "" {
			continue
		}
		cal[role] = robot.MotorCalibration{ID: s.ID}
	}

	fmt.Println()
	for _, name := range robot.AllMotors() {
		if _, ok := cal[name]; !ok {
			fmt.Printf("No servo identified as %s.\n", name)
			fmt.Println("Both table and claw are required.")
			os.Exit(1)
		}
	}

	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Motors identified:"))
	for _, name := range robot.AllMotors() {
		fmt.Printf("  %-6s servo %d\n", name+":", cal[name].ID)
	}
	return cal
}

func wiggle(servo *feetech.Servo, id int) {
	ctx := context.Background()

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return
	}

	fmt.Printf("\n  Wiggling servo %d...\n", id)

	// Single gentle, slow movement
	wiggleAmount := 100
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.Disable(ctx)
}

func askRole(id int, needed []robot.MotorName, current robot.Calibration) robot.MotorName {
	var options []huh.Option[string]
	for _, name := range needed {
		switch name {
		case robot.Table:
			options = append(options, huh.NewOption("Table (turns the cube)", string(name)))
		case robot.Claw:
			options = append(options, huh.NewOption("Claw (holds and flips the cube)", string(name)))
		}
	}
	options = append(options, huh.NewOption("Skip this servo", "skip"))

	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which motor is servo %d?", id)).
				Description(roleHint(id, current)).
				Options(options...).
				Value(&role),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	if role == "skip" {
		return ""
	}
	return robot.MotorName(role)
}

func roleHint(id int, current robot.Calibration) string {
	if name, _, ok := current.ByID(id); ok {
		return fmt.Sprintf("The servo that just wiggled (configured as %s)", name)
	}
	return "The servo that just wiggled"
}

// recordHome lets the user move both motors by hand to their zero positions
// and stores those as homing offsets.
func recordHome(bus *feetech.Bus, cal robot.Calibration) {
	ctx := context.Background()

	servos := make(map[robot.MotorName]*feetech.Servo)
	for _, name := range robot.AllMotors() {
		servo := feetech.NewServo(bus, cal[name].ID, nil)
		servo.Disable(ctx)
		servos[name] = servo
	}

	fmt.Println("Turn the table so a face points at the claw, and open the claw.")
	fmt.Println()

	model := newHomeModel(servos)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording home: %v\n", err)
		os.Exit(1)
	}

	hm := finalModel.(homeModel)
	for _, name := range robot.AllMotors() {
		mc := cal[name]
		mc.HomingOffset = hm.positions[name]
		cal[name] = mc
	}
	fmt.Println("Home position recorded.")
}

// Home position TUI model
type homeModel struct {
	servos    map[robot.MotorName]*feetech.Servo
	positions map[robot.MotorName]int
	quitting  bool
}

type tickMsg time.Time

func newHomeModel(servos map[robot.MotorName]*feetech.Servo) homeModel {
	return homeModel{
		servos:    servos,
		positions: make(map[robot.MotorName]int),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m homeModel) Init() tea.Cmd {
	return tick()
}

func (m homeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for name, servo := range m.servos {
			pos, err := servo.Position(ctx)
			if err != nil {
				continue
			}
			m.positions[name] = pos
		}
		return m, tick()
	}

	return m, nil
}

func (m homeModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableMotorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)

	motors := robot.AllMotors()
	rows := make([][]string, 0, len(motors))
	for _, name := range motors {
		pos := m.positions[name]
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", pos),
			fmt.Sprintf("%d°", pos*360/robot.StepsPerTurn),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Raw", "Angle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableMotorStyle
			case 1:
				return tableCurrentStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter to record this position"))

	return sb.String()
}

// Package tui renders the simulation in a terminal: live sensor readouts, a
// MAP sparkline over the rolling history, and the peak summary.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/prasadtara/enginesim/internal/engine"
	"github.com/prasadtara/enginesim/internal/units"
)

// Options controls presentation only; the engine always works in PSI.
type Options struct {
	PressureUnit string  // "psi" or "kpa"
	RPMGaugeMax  int     // bar scale for the RPM gauge
	MAPGaugeMax  float64 // sparkline/bar scale, PSI
}

// UI draws simulation snapshots on a tcell screen at its own cadence.
type UI struct {
	sim  *engine.Simulation
	opts Options
}

// New creates a terminal UI for the given simulation.
func New(sim *engine.Simulation, opts Options) *UI {
	p := sim.Params()
	if opts.RPMGaugeMax <= 0 {
		opts.RPMGaugeMax = p.RedlineRPM + 500
	}
	if opts.MAPGaugeMax <= 0 {
		opts.MAPGaugeMax = p.MaxBoostPSI + 7.5
	}
	if opts.PressureUnit == "" {
		opts.PressureUnit = "psi"
	}
	return &UI{sim: sim, opts: opts}
}

// Run owns the screen until ctx is cancelled, the simulation finishes, or the
// user quits. The draw ticker is independent of the producer tick.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.Clear()

	eventChan := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	started := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					ev.Rune() == 'q' || ev.Rune() == 'Q' {
					return nil
				}
				if ev.Rune() == 'r' || ev.Rune() == 'R' {
					u.sim.ResetPeaks()
				}
			case *tcell.EventResize:
				screen.Clear()
			}
		case <-ticker.C:
			snap := u.sim.Snapshot()
			u.draw(screen, snap)
			if snap.Running {
				started = true
			} else if started {
				// Leave the final frame on screen briefly, then exit.
				time.Sleep(time.Second)
				return nil
			}
		}
	}
}

func (u *UI) draw(screen tcell.Screen, snap engine.Snapshot) {
	screen.Clear()
	width, _ := screen.Size()
	p := u.sim.Params()

	title := tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	label := tcell.StyleDefault.Foreground(tcell.ColorGray)
	value := tcell.StyleDefault

	drawText(screen, 2, 0, "Engine Tuning Simulator", title)
	drawText(screen, 2, 1, fmt.Sprintf("atmospheric %s | boost threshold %s | elapsed %.1fs",
		u.pressure(p.AtmosphericPSI), u.pressure(p.BoostActivePSI), snap.Elapsed), label)

	s := snap.Sample
	drawText(screen, 2, 3, fmt.Sprintf("phase  %-12s boost  %s", s.Phase, s.BoostStatus), value)

	drawText(screen, 2, 5, "RPM", label)
	drawText(screen, 8, 5, fmt.Sprintf("%5d", s.RPM), value)
	drawBar(screen, 16, 5, width-18, float64(s.RPM), float64(u.opts.RPMGaugeMax), rpmColor(s.RPM, p.RedlineRPM))

	drawText(screen, 2, 6, "MAP", label)
	drawText(screen, 8, 6, fmt.Sprintf("%8s", u.pressure(s.MAP)), value)
	drawBar(screen, 16, 6, width-18, s.MAP, u.opts.MAPGaugeMax, mapColor(s.MAP, p.BoostActivePSI))

	drawText(screen, 2, 7, "TPS", label)
	drawText(screen, 8, 7, fmt.Sprintf("%4d%%", s.TPS), value)
	drawBar(screen, 16, 7, width-18, float64(s.TPS), 100, tcell.ColorGreen)

	drawText(screen, 2, 8, "HP", label)
	drawText(screen, 8, 8, fmt.Sprintf("%6.0f", s.EstimatedHP), value)

	drawText(screen, 2, 10, "MAP over time", label)
	spark := renderSparkline(mapValues(snap.History), width-4, u.opts.MAPGaugeMax)
	drawText(screen, 2, 11, spark, tcell.StyleDefault.Foreground(tcell.ColorBlue))

	pk := snap.Peaks
	boost := "n/a (no boost hit)"
	if pk.MaxBoostPSI > p.BoostActivePSI {
		boost = u.pressure(pk.MaxBoostPSI)
	}
	drawText(screen, 2, 13, fmt.Sprintf("peak HP %.0f @ %s / %d RPM | highest boost %s",
		pk.MaxHP, u.pressure(pk.MAPAtMaxHP), pk.RPMAtMaxHP, boost), value)

	footer := " R: Reset Peaks | Q: Quit "
	if !snap.Running && snap.Ticks > 0 {
		footer = " simulation finished " + footer
	}
	drawText(screen, 2, 15, footer, label)

	screen.Show()
}

// pressure formats a PSI value in the configured display unit.
func (u *UI) pressure(psi float64) string {
	if u.opts.PressureUnit == "kpa" {
		return fmt.Sprintf("%.0f kPa", units.PSIToKPa(psi))
	}
	return fmt.Sprintf("%.1f PSI", psi)
}

func mapValues(points []engine.Point) []float64 {
	vals := make([]float64, len(points))
	for i, pt := range points {
		vals[i] = pt.MAP
	}
	return vals
}

func rpmColor(rpm, redline int) tcell.Color {
	switch {
	case rpm >= redline:
		return tcell.ColorRed
	case float64(rpm) >= float64(redline)*0.85:
		return tcell.ColorYellow
	default:
		return tcell.ColorGreen
	}
}

func mapColor(mapPSI, boostActive float64) tcell.Color {
	if mapPSI > boostActive {
		return tcell.ColorOrange
	}
	return tcell.ColorBlue
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

// drawBar renders value/limit as a horizontal gauge of full and shaded cells.
func drawBar(screen tcell.Screen, x, y, width int, value, limit float64, color tcell.Color) {
	if limit <= 0 || width <= 0 {
		return
	}

	frac := value / limit
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))

	filledStyle := tcell.StyleDefault.Foreground(color)
	emptyStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for i := 0; i < width; i++ {
		cell, style := '░', emptyStyle
		if i < filled {
			cell, style = '█', filledStyle
		}
		screen.SetContent(x+i, y, cell, nil, style)
	}
}

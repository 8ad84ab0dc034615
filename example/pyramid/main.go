package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactCounter counts the contact points reported by the world
type ContactCounter struct {
	feather2d.ContactAdapter
	Begun, Ended int
}

func (c *ContactCounter) Begin(feather2d.ContactPoint) bool {
	c.Begun++
	return true
}

func (c *ContactCounter) End(feather2d.ContactPoint) {
	c.Ended++
}

// SetupScene creates a static ground and a pyramid of unit boxes on it
func SetupScene(world *feather2d.World, rows int) ([]*actor.Body, error) {
	groundShape, err := actor.NewRectangle(50, 1)
	if err != nil {
		return nil, err
	}
	ground := actor.NewBody()
	if _, err := ground.AddShape(groundShape); err != nil {
		return nil, err
	}
	ground.SetMass(actor.MassInfinite)
	ground.Translate(mgl64.Vec2{0, -0.5})
	if err := world.AddBody(ground); err != nil {
		return nil, err
	}

	var boxes []*actor.Body
	for row := 0; row < rows; row++ {
		for col := 0; col < rows-row; col++ {
			shape, err := actor.NewRectangle(1, 1)
			if err != nil {
				return nil, err
			}
			body := actor.NewBody()
			fixture, err := body.AddShape(shape)
			if err != nil {
				return nil, err
			}
			if err := fixture.SetFriction(0.6); err != nil {
				return nil, err
			}
			body.SetMass(actor.MassNormal)
			body.Translate(mgl64.Vec2{
				(float64(col) - float64(rows-row-1)*0.5) * 1.05,
				0.5 + float64(row),
			})
			if err := world.AddBody(body); err != nil {
				return nil, err
			}
			boxes = append(boxes, body)
		}
	}

	return boxes, nil
}

func main() {
	rows := flag.Int("rows", 8, "rows of the pyramid")
	settingsPath := flag.String("settings", "", "YAML settings file")
	maxSteps := flag.Int("steps", 1200, "maximum steps")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := settings.Default()
	if *settingsPath != "" {
		loaded, err := settings.LoadFile(*settingsPath)
		if err != nil {
			logger.Error("loading settings", "path", *settingsPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	world := feather2d.NewWorld(feather2d.WithSettings(cfg), feather2d.WithLogger(logger))
	counter := &ContactCounter{}
	world.Listeners().Contact.Add(counter)

	sleeping := 0
	world.Events.Subscribe(feather2d.ON_SLEEP, func(event feather2d.Event) { sleeping++ })
	world.Events.Subscribe(feather2d.ON_WAKE, func(event feather2d.Event) { sleeping-- })

	boxes, err := SetupScene(world, *rows)
	if err != nil {
		logger.Error("building the scene", "error", err)
		os.Exit(1)
	}
	top := boxes[len(boxes)-1]

	for step := 1; step <= *maxSteps; step++ {
		world.Step(1)

		if step%60 == 0 {
			fmt.Printf("t=%5.2fs top=%v asleep=%d/%d contacts=%d\n",
				float64(step)*cfg.StepFrequency, top.Transform().Position, sleeping, len(boxes), len(world.ContactConstraints()))
		}
		if sleeping == len(boxes) {
			logger.Info("pyramid asleep", "step", step, "top", top.Transform().Position)
			break
		}
	}

	fmt.Printf("contact points begun=%d ended=%d\n", counter.Begun, counter.Ended)
}

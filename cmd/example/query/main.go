package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	niri "github.com/niri-tools/niri-go"
)

type logger struct {
	log *logrus.Logger
}

func (l logger) Info(msg string) {
	l.log.Info(msg)
}

func (l logger) Warn(msg string) {
	l.log.Warn(msg)
}

func main() {
	log := logrus.New()

	c, err := niri.New(logger{log: log})
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Fatal(err)
		}
	}()

	var version string
	if err := c.Request(niri.RequestVersion, niri.ToVersion(&version)); err != nil {
		log.Fatal(err)
	}
	fmt.Println("compositor version:", version)

	var workspaces []niri.Workspace
	if err := c.Request(niri.RequestWorkspaces, niri.ToWorkspaces(&workspaces)); err != nil {
		log.Fatal(err)
	}

	for _, ws := range workspaces {
		name := "(unnamed)"
		if ws.Name != nil {
			name = *ws.Name
		}

		fmt.Printf("workspace %d: %s focused=%v\n", ws.ID, name, ws.IsFocused)
	}
}

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

	eventCh, errCh, err := c.EventStream()
	if err != nil {
		log.Fatal(err)
	}

	state := niri.NewEventStreamState()
	state.Windows().AddListener(func() {
		fmt.Println("windows:", len(state.Windows().Windows()))
	})

	for {
		select {
		case err := <-errCh:
			log.Fatal(err)
		case ev, ok := <-eventCh:
			if !ok {
				return
			}

			if _, err := state.Apply(ev); err != nil {
				log.Fatal(err)
			}

			switch p := ev.Payload.(type) {
			case niri.EventWindowFocusChanged:
				if p.ID == nil {
					fmt.Println("focus cleared")
					continue
				}

				if w, found := state.Windows().Window(*p.ID); found && w.Title != nil {
					fmt.Println("focused:", *w.Title)
				}
			case niri.EventWorkspaceActivated:
				fmt.Println("workspace activated:", p.ID)
			case niri.EventOverviewOpenedOrClosed:
				fmt.Println("overview open:", p.IsOpen)
			}
		}
	}
}

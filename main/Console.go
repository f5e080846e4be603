package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"portq/broker_server/core/topic"
)

const (
	cmdExit = "exit"
	cmdStop = "stop"
	cmdList = "list"
	cmdHelp = "help"
)

type operatorTarget interface {
	ControlPort() int
	DescribeTopics() ([]topic.TopicDescriptor, error)
}

// RunConsole serves operator commands until one of them asks for shutdown
// or ctx is done, and returns why it stopped. The end of input does not
// stop the broker so it can run detached.
func RunConsole(ctx context.Context, in io.Reader, out io.Writer, target operatorTarget) string {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	fmt.Fprintf(out, "%s on control port %d, type %s to stop\n",
		color.GreenString("portq broker running"), target.ControlPort(), color.CyanString(cmdExit))
	for {
		select {
		case <-ctx.Done():
			return "signal received"
		case line := <-lines:
			switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
			case "":
			case cmdExit, cmdStop:
				return "operator requested " + cmd
			case cmdList:
				printTopics(out, target)
			case cmdHelp:
				fmt.Fprintf(out, "commands: %s, %s, %s\n", cmdList, cmdExit, cmdStop)
			default:
				fmt.Fprintf(out, "%s %q, type %s\n", color.YellowString("unknown command"), cmd, cmdHelp)
			}
		}
	}
}

func printTopics(out io.Writer, target operatorTarget) {
	descriptors, err := target.DescribeTopics()
	if err != nil {
		fmt.Fprintln(out, color.RedString("unable to list topics: %s", err.Error()))
		return
	}
	if len(descriptors) == 0 {
		fmt.Fprintln(out, "no topics yet")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, color.CyanString("TOPIC")+"\tPORT\tDEPTH\tCREATED")
	for _, d := range descriptors {
		fmt.Fprintf(w, "%s\t%d\t%d/%d\t%s\n", d.Name, d.Port, d.Depth, d.Capacity, d.CreatedAt.Format("15:04:05"))
	}
	w.Flush()
}

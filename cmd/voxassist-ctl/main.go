package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "github.com/spf13/pflag"

	"voxassist/internal/ipc"
	"voxassist/internal/present"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	text := cli.StringP("text", "t", "", "Ask with text instead of recording")
	timeout := cli.Duration("timeout", 2*time.Minute, "How long to wait for the daemon")
	cli.Parse()

	msg := ipc.ControlMessage{Cmd: ipc.CmdTrigger}
	if cli.Arg(0) == ipc.CmdAsk || *text != "" {
		msg = ipc.ControlMessage{Cmd: ipc.CmdAsk, Text: *text}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, msg)
	if err != nil {
		fmt.Println("voxassist-daemon not running:", err)
		os.Exit(1)
	}

	if reply.Output != nil {
		_ = present.NewTerminal(os.Stdout).Show(*reply.Output)
	}
	if !reply.OK {
		fmt.Fprintln(os.Stderr, "error:", reply.Error)
		os.Exit(1)
	}
}

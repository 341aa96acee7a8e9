package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/icoainc/phonebt/internal/audiorouter"
	"github.com/icoainc/phonebt/internal/banner"
	"github.com/icoainc/phonebt/internal/bttransport"
	"github.com/icoainc/phonebt/internal/config"
	"github.com/icoainc/phonebt/internal/hfp"
	"github.com/icoainc/phonebt/internal/hfpcontrol"
	"github.com/icoainc/phonebt/internal/logger"
	"github.com/icoainc/phonebt/internal/voicepipeline"
)

func main() {
	cfg := config.Load()

	banner.Print("PHONEBT", []banner.ConfigLine{
		{Label: "Transport", Value: cfg.Transport},
		{Label: "Connect Timeout", Value: cfg.ConnectTimeout.String()},
		{Label: "Bus Buffer", Value: strconv.Itoa(cfg.EventBusBuffer)},
		{Label: "Log Level", Value: cfg.LogLevel},
	})

	logger.InitLogger(os.Stdout)
	logger.SetLevel(cfg.LogLevel)

	transport := bttransport.NewSimTransport()
	engine := hfp.New(transport, cfg.EventBusBuffer)
	defer engine.Shutdown()

	adapter := hfpcontrol.New(engine, audiorouter.NoopRouter{}, voicepipeline.None)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received signal, shutting down")
		_ = engine.Disconnect()
		cancel()
		os.Exit(0)
	}()

	logEvents(engine)

	code := runREPL(ctx, cfg, transport, engine, adapter)
	os.Exit(code)
}

// logEvents spawns a subscriber that logs the kind of every bus event at
// debug level, giving operators a live feed alongside the REPL prompt.
func logEvents(engine *hfp.Engine) {
	sub := engine.Bus().Subscribe()
	go func() {
		for e := range sub.Events() {
			logger.Debug("event", "kind", e.Kind.String())
		}
	}()
}

func runREPL(ctx context.Context, cfg *config.Config, transport *bttransport.SimTransport, engine *hfp.Engine, adapter *hfpcontrol.Adapter) int {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`Type "help" for a list of commands.`)

	for {
		fmt.Print("phonebt> ")
		if !scanner.Scan() {
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "quit", "exit":
			_ = engine.Disconnect()
			return 0
		case "connect":
			if err := engine.Connect(ctx, cfg.ConnectTimeout); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("connected")
		case "disconnect":
			if err := engine.Disconnect(); err != nil {
				fmt.Println("error:", err)
			}
		case "dial":
			if len(args) != 1 {
				fmt.Println("usage: dial <number>")
				continue
			}
			fmt.Println(string(adapter.Execute(ctx, "dial_number", map[string]string{"number": args[0]})))
		case "answer":
			fmt.Println(string(adapter.Execute(ctx, "accept_call", nil)))
		case "hangup":
			fmt.Println(string(adapter.Execute(ctx, "end_call", nil)))
		case "dtmf":
			if len(args) != 1 {
				fmt.Println("usage: dtmf <digit>")
				continue
			}
			fmt.Println(string(adapter.Execute(ctx, "send_dtmf", map[string]string{"digit": args[0]})))
		case "status":
			fmt.Println(string(adapter.Execute(ctx, "get_call_status", nil)))
		case "phone":
			fmt.Println(string(adapter.Execute(ctx, "get_phone_status", nil)))
		case "audio":
			if err := engine.TransferAudioToComputer(); err != nil {
				fmt.Println("error:", err)
			}
		case "simulate":
			runSimulate(transport, args)
		default:
			fmt.Printf("unknown command %q, type \"help\"\n", cmd)
		}
	}
}

// runSimulate drives the SimTransport's Fire* methods for local demos, e.g.
// "simulate incoming 5551234567".
func runSimulate(transport *bttransport.SimTransport, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: simulate <incoming|active|held|sco-on|sco-off> [arg]")
		return
	}
	switch args[0] {
	case "incoming":
		number := ""
		if len(args) > 1 {
			number = args[1]
		}
		transport.FireIncomingCallFrom(number, number != "")
	case "active":
		transport.FireCallActive(true)
	case "held":
		transport.FireCallHoldState(1)
	case "sco-on":
		transport.FireSCOOpened()
	case "sco-off":
		transport.FireSCOClosed()
	default:
		fmt.Printf("unknown simulate target %q\n", args[0])
	}
}

func printHelp() {
	fmt.Println(`commands:
  connect               establish the service-level connection
  disconnect            tear down the connection
  dial <number>         place an outgoing call
  answer                accept an incoming call
  hangup                end the active call
  dtmf <digit>          send a DTMF digit mid-call
  status                print call status
  phone                 print phone/signal/battery status
  audio                 transfer audio to this computer
  simulate <event> ...  drive the simulated transport (demo only)
  help                  show this text
  quit                  exit`)
}

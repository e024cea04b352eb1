// boost-cli is the interactive host console for the supply.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"

	"goboost/host/serial"
	"goboost/host/supply"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Print raw command traffic")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to supply on %s...\n", *device)
	client, err := supply.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Connected. Type 'help' for commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		if *verbose {
			fmt.Printf("# %v\n", args)
		}

		switch args[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "volt":
			runSet(args, "millivolts", client.SetVoltage)

		case "limit":
			runSet(args, "milliamps", client.SetCurrentLimit)

		case "off":
			if err := client.Off(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "status":
			printStatus(client)

		case "statusx":
			ext, err := client.StatusExt()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Printf("%dmV %dmA %dmW duty=%d cc=%v\n",
				ext.VoltageMilliVolts, ext.CurrentMilliAmps,
				ext.PowerMilliWatts, ext.Duty, ext.CCMode)

		case "watch":
			count := 10
			if len(args) > 1 {
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					count = n
				}
			}
			for i := 0; i < count; i++ {
				printStatus(client)
				time.Sleep(500 * time.Millisecond)
			}

		case "log":
			text, err := client.ReadLog()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if text == "" {
				fmt.Println("(log empty)")
			} else {
				fmt.Print(text)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", args[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func runSet(args []string, unit string, set func(uint32) error) {
	if len(args) < 2 {
		fmt.Printf("Usage: %s <%s>\n", args[0], unit)
		return
	}
	value, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad value %q: %v\n", args[1], err)
		return
	}
	if err := set(uint32(value)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func printStatus(client *supply.Client) {
	st, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	mode := "CV"
	if st.CCMode {
		mode = "CC"
	}
	fmt.Printf("%s %dmV %dmA duty=%d\n", mode, st.VoltageMilliVolts, st.CurrentMilliAmps, st.Duty)
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  volt <mV>      - Set voltage target (0 halts the converter)")
	fmt.Println("  limit <mA>     - Set current limit (0 disables limiting and halts)")
	fmt.Println("  off            - Zero both targets")
	fmt.Println("  status         - Read the compact status report")
	fmt.Println("  statusx        - Read the extended report with power")
	fmt.Println("  watch [n]      - Poll status n times (default 10)")
	fmt.Println("  log            - Drain the firmware diagnostic log")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

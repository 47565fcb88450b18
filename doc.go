// Package termux runs the Termux:API command-line tools and turns their
// output into typed Go values.
//
// Every device capability (battery, sensors, media player, telephony,
// notifications and so on) is a separate termux-* program. The programs
// agree on nothing beyond "exit code 0 means it ran": some print JSON,
// some print nothing on success, some print a status sentence. This
// package gives them one contract.
//
// # One-Shot Calls
//
// Build an Invocation, then pick the Interpreter matching the command's
// output convention:
//
//	c := termux.New(termux.WithTimeout(10 * time.Second))
//	defer c.Close()
//
//	inv := termux.BuildArgs([]string{"termux-battery-status"}, nil, nil)
//	status, err := termux.Call(ctx, c, inv, termux.JSON[map[string]any]{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The interpreters are:
//
//   - JSON: decode a JSON document
//   - Silent: no output means success, any output is the error message
//   - PrefixGate: success or failure decided by a leading phrase
//   - PrefixMap: leading phrase mapped to a value, with a default
//   - Pattern, Groups: values captured by a regular expression
//   - Text, KeyValue: raw text and "Key: value" listings
//
// # Streams
//
// Commands that report continuously (sensors, location updates) are
// opened as a Stream. Values are decoded as soon as the accumulated output
// forms a complete JSON document:
//
//	s, err := termux.Open[map[string]any](ctx, c, inv)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for event, err := range s.Events() {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(event)
//	}
//
// Breaking out of the loop, calling Cancel, or ending ctx kills the
// process.
//
// # Process Registry
//
// Every long-lived process is tracked by a Registry. Client.Close and
// Registry.Shutdown kill whatever is still running; Registry.WatchSignals
// does the same when the program is interrupted.
//
// # Transports
//
// Commands run locally by default. SSHTransport runs them on a phone
// reachable through Termux's sshd instead:
//
//	c := termux.New(termux.WithTransport(&termux.SSHTransport{
//		Host:    "192.168.1.20",
//		User:    "u0_a123",
//		KeyPath: "/home/me/.ssh/id_ed25519",
//	}))
//
// # Hooks
//
// Optional hooks enable observability without coupling to a specific
// logging framework:
//
//	c := termux.New(termux.WithHooks(&termux.Hooks{
//		OnExit:  func(inv termux.Invocation, code int, d time.Duration) { log.Printf("%s: %d", inv, code) },
//		OnError: func(err error) { log.Printf("error: %v", err) },
//	}))
//
// The per-capability wrappers live in the api subpackage.
package termux

package main

import "os"
import "os/signal"
import "runtime/pprof"
import "syscall"

// startProfile writes a CPU profile into default.pgo until the process ends or
// is interrupted. The returned function stops it.
func startProfile() func() {
	f, err := os.Create("default.pgo")
	if err != nil {
		println(err.Error())
		return func() {}
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		println(err.Error())
		f.Close()
		return func() {}
	}
	stop := func() {
		pprof.StopCPUProfile()
		f.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		stop()
		os.Exit(130)
	}()
	return stop
}

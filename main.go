// main.go - Command line entry point

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

func boilerPlate() {
	fmt.Println("chirp8 - a CHIP-8 virtual machine")
	fmt.Println("https://github.com/chirp8/chirp8")
	fmt.Println()
}

func main() {
	boilerPlate()

	var (
		scale       int
		volume      float64
		cps         int
		mute        bool
		terminal    bool
		wraparound  bool
		etiLoad     bool
		profile     string
		configPath  string
		writeConfig string
		showInfo    bool
		validate    bool
		bench       bool
		benchSecs   int
		disasm      bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&scale, "scale", 0, "Window pixels per display pixel (1-20)")
	flagSet.Float64Var(&volume, "volume", -1, "Buzzer volume (0.0-1.0)")
	flagSet.IntVar(&cps, "cps", 0, "Instructions per second (100-2000)")
	flagSet.BoolVar(&mute, "mute", false, "Disable audio output")
	flagSet.BoolVar(&terminal, "terminal", false, "Render into the terminal instead of a window")
	flagSet.BoolVar(&wraparound, "wraparound", false, "Wrap memory addresses instead of failing")
	flagSet.BoolVar(&etiLoad, "eti", false, "Load the program at the ETI-660 address 0x600")
	flagSet.StringVar(&profile, "profile", "", "Config preset: classic, modern or retro")
	flagSet.StringVar(&configPath, "config", "", "Load configuration from a TOML file")
	flagSet.StringVar(&writeConfig, "write-config", "", "Write a commented sample config to the given path and exit")
	flagSet.BoolVar(&showInfo, "info", false, "Print ROM details and exit")
	flagSet.BoolVar(&validate, "validate", false, "Scan the ROM for unrecognized opcodes and exit")
	flagSet.BoolVar(&bench, "bench", false, "Run the ROM headless and report instructions/sec")
	flagSet.IntVar(&benchSecs, "bench-secs", 3, "Benchmark duration in seconds")
	flagSet.BoolVar(&disasm, "disasm", false, "Print a full disassembly and exit")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: chirp8 [options] rom.ch8")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if writeConfig != "" {
		if err := os.WriteFile(writeConfig, []byte(SampleConfig()), 0o644); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote sample config to %s\n", writeConfig)
		os.Exit(0)
	}

	romPath := flagSet.Arg(0)
	if romPath == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	// Tooling modes inspect the image without building a machine.
	if showInfo || validate || disasm || bench {
		runTooling(romPath, showInfo, validate, disasm, bench, benchSecs, etiLoad)
		return
	}

	cfg := resolveConfig(profile, configPath)
	if scale > 0 {
		cfg.Graphics.Scale = scale
	}
	if volume >= 0 {
		cfg.Audio.Volume = volume
	}
	if cps > 0 {
		cfg.Behavior.CyclesPerSecond = cps
	}
	if mute {
		cfg.Audio.Mute = true
	}
	if terminal {
		cfg.Graphics.Terminal = true
	}
	if wraparound {
		cfg.Behavior.Wraparound = true
	}
	if etiLoad {
		cfg.Behavior.ETILoad = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	rom, err := LoadROMFile(romPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	machine, err := NewMachine(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := machine.LoadROM(rom, ROMTitle(romPath)); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := machine.Run(); err != nil {
		fmt.Printf("Execution stopped: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig layers the sources: explicit file, then named profile,
// then the default search paths.
func resolveConfig(profile, configPath string) *Config {
	if configPath != "" {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	if profile != "" {
		cfg, err := ConfigFromProfile(profile)
		if err != nil {
			fmt.Printf("Error: %v (profiles: %v)\n", err, ConfigProfiles())
			os.Exit(1)
		}
		return cfg
	}
	return LoadDefaultConfig()
}

func runTooling(romPath string, showInfo, validate, disasm, bench bool, benchSecs int, etiLoad bool) {
	base := uint16(PROGRAM_START)
	if etiLoad {
		base = ETI_START
	}

	rom, err := LoadROMFile(romPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if showInfo {
		info, err := InspectROM(romPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(info.String())
	}

	if validate {
		unknown := ValidateROM(rom, base)
		if len(unknown) == 0 {
			fmt.Println("All opcodes recognized.")
		} else {
			fmt.Printf("%d unrecognized word(s):\n", len(unknown))
			fmt.Print(FormatListing(unknown))
		}
	}

	if disasm {
		fmt.Print(FormatListing(DisassembleROM(rom, base)))
	}

	if bench {
		duration := time.Duration(benchSecs) * time.Second
		rate, executed, err := BenchmarkROM(rom, duration)
		if err != nil {
			fmt.Printf("Stopped after %d instructions: %v\n", executed, err)
		}
		fmt.Printf("%d instructions in %ds (%.0f/sec)\n", executed, benchSecs, rate)
	}
}

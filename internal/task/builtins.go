package task

import (
	"fmt"
	"time"
)

func init() {
	register(Definition{
		ID:       "disk-usage",
		Name:     "Disk Usage Report",
		Category: "diagnostic",
		Estimate: 5 * time.Second,
		Options: []OptionSpec{
			{Key: "human", Label: "Human-readable sizes", Type: OptionBoolean, Default: true},
		},
		Build: func(opts Options) Invocation {
			args := []string{"-P"}
			if b, _ := opts["human"].(bool); b {
				args = append(args, "-h")
			}
			return Invocation{Binary: "df", Args: args}
		},
	})

	register(Definition{
		ID:       "temp-clean",
		Name:     "Temporary File Cleanup",
		Category: "cleanup",
		Estimate: 30 * time.Second,
		Options: []OptionSpec{
			{Key: "olderThanDays", Label: "Only files older than (days)", Type: OptionNumber, Default: float64(7), Min: 1, Max: 365},
			{Key: "dryRun", Label: "Dry run (list only)", Type: OptionBoolean, Default: true},
		},
		Build: func(opts Options) Invocation {
			days, _ := toFloat(opts["olderThanDays"])
			args := []string{"/tmp", "-xdev", "-type", "f", "-mtime", fmt.Sprintf("+%d", int(days))}
			if b, _ := opts["dryRun"].(bool); b {
				args = append(args, "-print")
			} else {
				args = append(args, "-print", "-delete")
			}
			return Invocation{Binary: "find", Args: args}
		},
	})

	register(Definition{
		ID:       "ping-test",
		Name:     "Ping Test",
		Category: "network",
		Estimate: 10 * time.Second,
		Options: []OptionSpec{
			{Key: "host", Label: "Host", Type: OptionString, Default: "1.1.1.1"},
			{Key: "count", Label: "Packets", Type: OptionNumber, Default: float64(4), Min: 1, Max: 100},
		},
		Build: func(opts Options) Invocation {
			host, _ := opts["host"].(string)
			count, _ := toFloat(opts["count"])
			return Invocation{Binary: "ping", Args: []string{"-c", fmt.Sprintf("%d", int(count)), host}}
		},
	})

	register(Definition{
		ID:       "dns-check",
		Name:     "DNS Resolution Check",
		Category: "network",
		Estimate: 5 * time.Second,
		Options: []OptionSpec{
			{Key: "domain", Label: "Domain", Type: OptionString, Default: "example.com"},
			{Key: "recordType", Label: "Record type", Type: OptionChoice, Default: "A", Choices: []string{"A", "AAAA", "MX", "NS"}},
		},
		Build: func(opts Options) Invocation {
			domain, _ := opts["domain"].(string)
			rtype, _ := opts["recordType"].(string)
			return Invocation{Binary: "dig", Args: []string{"+short", domain, rtype}}
		},
	})

	register(Definition{
		ID:       "smart-health",
		Name:     "SMART Drive Health",
		Category: "hardware",
		Estimate: 15 * time.Second,
		Options: []OptionSpec{
			{Key: "device", Label: "Device", Type: OptionString, Default: "/dev/sda"},
		},
		Build: func(opts Options) Invocation {
			dev, _ := opts["device"].(string)
			return Invocation{Binary: "smartctl", Args: []string{"-H", dev}}
		},
	})

	register(Definition{
		ID:       "memory-info",
		Name:     "Memory Summary",
		Category: "hardware",
		Estimate: 2 * time.Second,
		Build: func(Options) Invocation {
			return Invocation{Binary: "free", Args: []string{"-m"}}
		},
	})
}

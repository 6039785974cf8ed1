// Package safety screens utterances before any automation request is
// made on the user's behalf.
package safety

import (
	"fmt"
	"strings"
)

// Category groups related dangerous patterns.
type Category string

const (
	Power        Category = "power"
	Files        Category = "files"
	Processes    Category = "processes"
	Registry     Category = "registry"
	Network      Category = "network"
	Financial    Category = "financial"
	Malware      Category = "malware"
	Exfiltration Category = "exfiltration"
	SystemMod    Category = "system"
	Admin        Category = "admin"
)

var defaultPatterns = map[Category][]string{
	Power:        {"shutdown", "shut down", "restart", "reboot", "poweroff", "power off", "halt"},
	Files:        {"delete", "remove", "rm ", "del ", "format", "fdisk", "mkfs", "rmdir", "rd ", "erase", "wipe", "shred"},
	Processes:    {"kill", "taskkill", "pkill", "killall", "terminate"},
	Registry:     {"regedit", "reg add", "reg delete", "registry"},
	Network:      {"netsh", "firewall", "iptables", "ufw"},
	Financial:    {"send money", "transfer funds", "payment", "paypal", "venmo", "bitcoin", "crypto", "bank transfer", "wire money"},
	Malware:      {"download exe", "install malware", "virus", "trojan", "backdoor", "keylogger", "ransomware"},
	Exfiltration: {"copy to usb", "upload files", "send files", "exfiltrate", "steal data", "backup to cloud", "sync files"},
	SystemMod:    {"chmod 777", "sudo rm", "rm -rf", "del /f /q", "format c:", "diskpart", "bcdedit"},
	Admin:        {"net user", "useradd", "passwd", "password", "admin", "administrator", "root access"},
}

// categoryOrder fixes the scan order so the reported pattern is stable.
var categoryOrder = []Category{
	Power, Files, Processes, Registry, Network, Financial, Malware, Exfiltration, SystemMod, Admin,
}

// intentCategories marks intents that are dangerous by themselves.
var intentCategories = map[string]Category{
	"shutdown": Power,
	"restart":  Power,
}

// BlockedError reports why a request was refused.
type BlockedError struct {
	Intent   string
	Category Category
	Pattern  string
}

func (e *BlockedError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("safety: intent %q is not allowed (%s)", e.Intent, e.Category)
	}
	return fmt.Sprintf("safety: %q matches blocked %s pattern %q", e.Intent, e.Category, e.Pattern)
}

// Guard checks requests against the dangerous pattern list.
type Guard struct {
	allowed map[Category]bool
}

// NewGuard returns a guard with every category blocked except allow.
func NewGuard(allow ...Category) *Guard {
	g := &Guard{allowed: make(map[Category]bool)}
	for _, c := range allow {
		g.allowed[c] = true
	}
	return g
}

// Check returns a *BlockedError when intent or utterance falls into a
// blocked category.
func (g *Guard) Check(intent, utterance string) error {
	if c, ok := intentCategories[intent]; ok && !g.allowed[c] {
		return &BlockedError{Intent: intent, Category: c}
	}

	text := strings.ToLower(strings.TrimSpace(utterance))
	for _, c := range categoryOrder {
		if g.allowed[c] {
			continue
		}
		for _, p := range defaultPatterns[c] {
			if strings.Contains(text, p) {
				return &BlockedError{Intent: intent, Category: c, Pattern: p}
			}
		}
	}

	if !g.allowed[Files] && containsAny(text, "delete", "remove") && containsAny(text, "system", "windows", "program") {
		return &BlockedError{Intent: intent, Category: Files, Pattern: "delete system files"}
	}
	if !g.allowed[Files] && strings.Contains(text, "format") && containsAny(text, "c:", "d:", "e:") {
		return &BlockedError{Intent: intent, Category: Files, Pattern: "format drive"}
	}
	return nil
}

// IsSafe reports whether utterance passes every check.
func (g *Guard) IsSafe(utterance string) bool {
	return g.Check("", utterance) == nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

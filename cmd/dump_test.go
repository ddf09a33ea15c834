package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestDump_SimBackend(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"dump", "--backend", "sim"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		backend = ""
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"address 0x40 mode1 0x00", "port 0 gripper", "port 2 wrist"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

package security

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestValidateString(t *testing.T) {
	lim := DefaultLimits()

	if err := ValidateString("ok", "debian", lim); err != nil {
		t.Errorf("plain value rejected: %v", err)
	}
	if err := ValidateString("empty", "", lim); err != nil {
		t.Errorf("empty value rejected: %v", err)
	}
	if err := ValidateString("nul", "a\x00b", lim); err == nil {
		t.Error("expected NUL byte rejection")
	}
	if err := ValidateString("control", "ab", lim); err == nil {
		t.Error("expected control rune rejection")
	}
	if err := ValidateString("badutf8", string([]byte{0xff, 0xfe, 0xfd}), lim); err == nil {
		t.Error("expected invalid UTF-8 rejection")
	}
	if err := ValidateString("long", strings.Repeat("a", lim.MaxString+1), lim); err == nil {
		t.Error("expected over-long value rejection")
	}
	if err := ValidateString("max", strings.Repeat("a", lim.MaxString), lim); err != nil {
		t.Errorf("value at the limit rejected: %v", err)
	}
}

func TestValidateStringWhitespacePolicy(t *testing.T) {
	lim := DefaultLimits()
	if err := ValidateString("nl", "a\nb", lim); err != nil {
		t.Errorf("newline rejected despite AllowNL: %v", err)
	}

	lim.AllowNL = false
	if err := ValidateString("nl", "a\nb", lim); err == nil {
		t.Error("expected newline rejection with AllowNL off")
	}

	lim = DefaultLimits()
	lim.AllowTab = false
	if err := ValidateString("tab", "a\tb", lim); err == nil {
		t.Error("expected tab rejection with AllowTab off")
	}
}

func TestAttachRecursiveRejectsHostileInput(t *testing.T) {
	newTree := func() (*cobra.Command, *cobra.Command) {
		root := &cobra.Command{Use: "root"}
		child := &cobra.Command{
			Use:  "fetch",
			Args: cobra.ArbitraryArgs,
			RunE: func(cmd *cobra.Command, args []string) error { return nil },
		}
		child.Flags().String("arch", "", "")
		child.Flags().StringSlice("format", nil, "")
		root.AddCommand(child)
		AttachRecursive(root, DefaultLimits())
		return root, child
	}

	t.Run("clean invocation passes", func(t *testing.T) {
		root, _ := newTree()
		root.SetArgs([]string{"fetch", "debian", "--arch", "amd64", "--format", "qcow2"})
		if err := root.Execute(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("NUL in positional arg", func(t *testing.T) {
		root, _ := newTree()
		root.SetArgs([]string{"fetch", "deb\x00ian"})
		if err := root.Execute(); err == nil {
			t.Error("expected rejection")
		}
	})

	t.Run("control rune in string flag", func(t *testing.T) {
		root, _ := newTree()
		root.SetArgs([]string{"fetch", "debian", "--arch", "amd\x0764"})
		if err := root.Execute(); err == nil {
			t.Error("expected rejection")
		}
	})

	t.Run("NUL in slice flag element", func(t *testing.T) {
		root, _ := newTree()
		root.SetArgs([]string{"fetch", "debian", "--format", "qcow2", "--format", "ra\x00w"})
		if err := root.Execute(); err == nil {
			t.Error("expected rejection")
		}
	})
}

func TestAttachPreservesExistingPreRun(t *testing.T) {
	called := false
	cmd := &cobra.Command{
		Use: "root",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			called = true
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	AttachRecursive(cmd, DefaultLimits())

	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("original PersistentPreRunE must still run")
	}
}

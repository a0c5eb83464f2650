// Package sh provides the interactive inspector of up-channels.
package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&AttachCmd,
		&DetachCmd,
		&StateCmd,
		&NameCmd,
		&DrainCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open region.
func MustBeOpen(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		sess := ShellFrom(c).Session
		if sess == nil {
			c.Err(ErrNotOpen)
			return
		}
		fn(c, sess)
	}
}

// Open opens the region at path, replacing the current session.
func (s *Shell) Open(path string) error {
	sess, err := OpenSession(path)
	if err != nil {
		return err
	}
	s.Close()
	s.Session = sess
	s.updatePrompt()
	return nil
}

// Close closes the current session.
func (s *Shell) Close() {
	if s.Session != nil {
		if err := s.Session.Close(); err != nil {
			glog.Warningf("close %s: %v", s.Session.Path, err)
		}
		s.Session = nil
		s.updatePrompt()
	}
}

func (s *Shell) updatePrompt() {
	if s.Session == nil {
		s.Shell.SetPrompt(closedPrompt)
		return
	}
	name, _ := s.Session.Name()
	if s.Session.Host.Attached() {
		name += "*"
	}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
}

func (s *Shell) print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run runs the shell. The configured arena is opened first when it exists.
func (s *Shell) Run(args ...string) error {
	if s.Config.ArenaPath != "" {
		if err := s.Open(s.Config.ArenaPath); err != nil {
			glog.V(2).Infof("open %s: %v", s.Config.ArenaPath, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// FormatData renders drained bytes as text when they are valid UTF-8 and
// as a hex dump otherwise.
func FormatData(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return hex.Dump(data)
}

var (
	// OpenCmd opens a region.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PATH]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			path := s.Config.ArenaPath
			if len(c.Args) > 0 {
				path = c.Args[0]
			}
			if err := s.Open(path); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the region.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// AttachCmd switches the channel to blocking mode.
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context, sess *Session) {
			if err := sess.Host.Reattach(); err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).updatePrompt()
		}),
	}

	// DetachCmd switches the channel back to non-blocking mode.
	DetachCmd = ishell.Cmd{
		Name:    "detach",
		Aliases: []string{"d"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context, sess *Session) {
			if err := sess.Host.Detach(); err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).updatePrompt()
		}),
	}

	// StateCmd prints the cursors.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeOpen(func(c *ishell.Context, sess *Session) {
			st, err := sess.State()
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).print(c, st, st.String())
		}),
	}

	// NameCmd prints the channel name.
	NameCmd = ishell.Cmd{
		Name: "name",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context, sess *Session) {
			name, err := sess.Name()
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).print(c, name, name)
		}),
	}

	// DrainCmd reads buffered bytes.
	DrainCmd = ishell.Cmd{
		Name:    "drain",
		Aliases: []string{"r"},
		Help:    "[MAX]",
		Func: MustBeOpen(func(c *ishell.Context, sess *Session) {
			var max int
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid MAX: %v", err))
					return
				}
				max = val
			}
			data, err := sess.Drain(max)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).print(c, data, FormatData(data))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.Default()
	if err != nil {
		glog.Exit(err)
	}
	if err = New(conf).Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}

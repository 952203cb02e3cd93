/*
   FluxDisk - floppy disk flux track codec
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of FluxDisk.

   FluxDisk is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   FluxDisk is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with FluxDisk. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

//
const (
	prologueHeader = ""
	epilogueHeader = `
Notes:

`
)

//
var (
	UnderTest bool
)

// DieOnError exits the running process if e is not nil. The error gets logged.
func DieOnError(e error) {
	if e != nil {
		fmt.Printf("%v\n", e)
		if UnderTest {
			panic(e.Error())
		}
		os.Exit(1)
	}
}

// Die exits the running process, while logging the given message.
func Die(msg string, params ...interface{}) {
	DieOnError(fmt.Errorf(strings.TrimSuffix(msg, "\n"), params...))
}

//
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var res string
	fmt.Scanln(&res)
	return "y" == strings.ToLower(strings.TrimSpace(res))
}

/*
	NewCommand creates a base command instance, wrapping a new Cobra command.
	The exec function is invoked when the command's Execute method is called.
*/
func NewCommand(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Command {

	ret := &Command{
		cmd: &cobra.Command{
			Use:   use,
			Short: short,
			Long:  long,
			RunE: func(*cobra.Command, []string) error {
				return exec()
			},
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
		},
		helpPrologue: helpPrologue,
		helpEpilogue: helpEpilogue,
	}
	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return ret
}

/*
	Command wraps Cobra & Viper, so that each setting of a command is declared
	in one place, together with its flag, environment variable, default, and
	valid range. Cobra/Viper alone make it hard to have a required setting that
	may come from either a flag or an environment variable
	(https://github.com/spf13/viper/issues/397), and to name both in the error
	message when it is missing.
*/
type Command struct {
	//
	cmd *cobra.Command
	//
	settings []*Setting
	//
	Args []string
	//
	helpPrologue string
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if c.helpPrologue != "" {
		fmt.Fprintln(out, prologueHeader+c.helpPrologue)
	}
	if c.helpFunc != nil {
		c.helpFunc(cmd, args)
	}
	if c.helpEpilogue != "" {
		fmt.Fprintln(out, epilogueHeader+c.helpEpilogue)
	} else {
		fmt.Fprintln(out)
	}
}

/*
	Execute invokes the exec function that was set on this command when it was
	created. If args is of non-zero length, it overrides os.Args.
*/
func (c *Command) Execute(args []string) error {
	if len(args) > 0 {
		c.cmd.SetArgs(args)
	}
	return c.cmd.Execute()
}

/*
	AddSetting adds a setting to this command and returns it, e.g. for limiting
	its range. Target points to the variable that receives the value. Flag and
	short are the long and short command line flags, env the environment
	variable that may carry the setting (none if empty). def is the default,
	the zero value of the target's type if nil. Required settings cannot have
	a default.

	Mistakes in declaring a setting are programming errors, so they end the
	process.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) *Setting {

	s, err := newSetting(target, flag, env, required)
	DieOnError(err)
	DieOnError(s.register(c.cmd.Flags(), short, def, help))

	c.settings = append(c.settings, s)
	return s
}

/*
	ParseSettings resolves all settings added so far, in the order they were
	added, and places their values in the bound variables. Call it from the
	exec function, before using any of those variables. The config file named
	by FLUXDISK_CONFIG is read on first call.
*/
func (c *Command) ParseSettings() error {

	if err := loadConfig(); err != nil {
		return err
	}

	for _, s := range c.settings {
		if err := s.resolve(); err != nil {
			return err
		}
	}

	c.Args = c.cmd.Flags().Args()
	return nil
}

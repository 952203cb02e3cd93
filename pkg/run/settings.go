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
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

/*
	Setting binds a command line flag, and optionally an environment variable
	and a config file key (same as the long flag name), to a target variable.
	The type of the target selects the pflag and Viper methods used for it, so
	only types for which both have a method are supported, e.g. int, string,
	bool, and []string.
*/
type Setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
	typ      reflect.Type
	typeName string // as used in pflag & Viper method names
	min, max int
	bounded  bool
}

//
func newSetting(target interface{}, flag, env string,
	required bool) (*Setting, error) {

	ptr := reflect.TypeOf(target)
	if ptr == nil || ptr.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("target for setting '%s' is not a pointer", flag)
	}

	s := &Setting{
		flag:     flag,
		env:      env,
		required: required,
		target:   target,
		typ:      ptr.Elem(),
	}

	if s.typ.Kind() == reflect.Slice {
		s.typeName = strings.Title(s.typ.Elem().Name()) + "Slice"
		if s.typeName != "StringSlice" && env != "" {
			return nil, fmt.Errorf(
				"setting '%s': only string slices can come from environment", flag)
		}
	} else {
		s.typeName = strings.Title(s.typ.Name())
	}

	// pflag supports some types Viper does not, so check both early on
	if _, err := s.viperGetter(); err != nil {
		return nil, err
	}

	return s, nil
}

/*
	InRange limits an int setting to [min, max]. Values outside are rejected
	by ParseSettings, whether they come from flag, environment, or config file.
*/
func (s *Setting) InRange(min, max int) *Setting {
	if s.typ.Kind() != reflect.Int {
		Die("setting '%s' is not an int, cannot limit its range", s.flag)
	}
	s.min, s.max, s.bounded = min, max, true
	return s
}

// register adds the flag for this setting to flags, and binds it in Viper.
func (s *Setting) register(flags *pflag.FlagSet, short string,
	def interface{}, help string) error {

	defVal := reflect.Zero(s.typ)

	if def != nil {
		if s.required {
			return fmt.Errorf(
				"required setting '%s' does not take a default value", s.flag)
		}
		if !reflect.TypeOf(def).ConvertibleTo(s.typ) {
			return fmt.Errorf(
				"default value for setting '%s' has incorrect type", s.flag)
		}
		defVal = reflect.ValueOf(def).Convert(s.typ)
	}

	method := reflect.ValueOf(flags).MethodByName(s.typeName + "VarP")
	if method.Kind() != reflect.Func {
		return fmt.Errorf("setting '%s' is of unsupported type %s: no pflag method",
			s.flag, s.typeName)
	}

	if s.env != "" {
		help = fmt.Sprintf("%s (%s)", help, s.env)
	}

	method.Call([]reflect.Value{
		reflect.ValueOf(s.target),
		reflect.ValueOf(s.flag),
		reflect.ValueOf(short),
		defVal,
		reflect.ValueOf(help),
	})

	if err := viper.BindPFlag(s.flag, flags.Lookup(s.flag)); err != nil {
		return err
	}
	if s.env != "" {
		return viper.BindEnv(s.flag, s.env)
	}
	return nil
}

//
func (s *Setting) viperGetter() (reflect.Value, error) {
	ret := reflect.ValueOf(viper.GetViper()).MethodByName("Get" + s.typeName)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf(
			"setting '%s' is of unsupported type %s: no Viper getter",
			s.flag, s.typeName)
	}
	return ret, nil
}

/*
	resolve gets the value for this setting from Viper, checks it, and places it
	in the target. Viper knows about flag, environment, and config file, but
	only values from flags end up in the target by themselves.
*/
func (s *Setting) resolve() error {

	getter, err := s.viperGetter()
	if err != nil {
		return err
	}

	val := getter.Call([]reflect.Value{reflect.ValueOf(s.flag)})[0]
	log.WithFields(log.Fields{
		"flag":    s.flag,
		"value":   val,
		"default": !viper.IsSet(s.flag),
	}).Trace("resolved setting")

	if s.required && s.isZero(val) {
		msg := fmt.Sprintf("you need to specify the --%s command line flag", s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	if s.bounded {
		if n := int(val.Int()); n < s.min || s.max < n {
			return fmt.Errorf("invalid value for --%s: %d; valid range is %d to %d",
				s.flag, n, s.min, s.max)
		}
	}

	if s.env == "" && !viper.InConfig(s.flag) {
		return nil
	}

	elem := reflect.ValueOf(s.target).Elem()
	if val.Kind() == reflect.Slice {
		if elem.Len() == 0 {
			elem.Set(reflect.ValueOf(splitStrings(val)))
		}
	} else {
		// a value from a flag is already in the target, so this only changes
		// anything for values from environment or config file
		elem.Set(val)
	}

	return nil
}

//
func (s *Setting) isZero(val reflect.Value) bool {
	if val.Kind() == reflect.Slice {
		return val.Len() == 0
	}
	return val.Interface() == reflect.Zero(s.typ).Interface()
}

// splitStrings flattens comma separated elements of a string slice.
func splitStrings(v reflect.Value) []string {
	var ret []string
	for ix := 0; ix < v.Len(); ix++ {
		ret = append(ret, strings.Split(v.Index(ix).String(), ",")...)
	}
	return ret
}

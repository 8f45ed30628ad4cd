// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/dotcache/internal/backend"
)

// DefaultCacheName is used when neither --name nor the config names a cache.
const DefaultCacheName = "default"

// NewGlobalFlags returns the flags every cache command accepts. ns is the
// command name and cfgPath the config file; a flag resolves from the command
// line, then its DOTCACHE_* variable, then "<ns>.<flag>" and "<flag>" in the
// config file.
func NewGlobalFlags(ns string, cfgPath string) []cli.Flag {
	flags := []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "cache name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_NAME")),
			Value:   DefaultCacheName,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, NotEmptyValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "storage backend: memory, file, bolt or s3",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_BACKEND")),
			Value:   string(backend.KindFile),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "storage directory for file and bolt backends",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_DIR")),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		&cli.BoolFlag{
			Name:  "write-through",
			Usage: "sync after every change instead of once per command",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("DOTCACHE_WRITE_THROUGH"),
				yaml.YAML(ns+"."+"write-through", altsrc.StringSourcer(cfgPath)),
				yaml.YAML("write-through", altsrc.StringSourcer(cfgPath)),
			),
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "periodic sync interval while the command runs, 0 disables",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("DOTCACHE_INTERVAL"),
				yaml.YAML(ns+"."+"interval", altsrc.StringSourcer(cfgPath)),
				yaml.YAML("interval", altsrc.StringSourcer(cfgPath)),
			),
			Validator: func(d time.Duration) error {
				return FlagValidators(d, NotNegativeValidator)
			},
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "log cache activity at debug level",
			Sources:     cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_DEBUG")),
			HideDefault: true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfgPath)),
				yaml.YAML("color", altsrc.StringSourcer(cfgPath)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, json, yaml or raw",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfgPath)),
				yaml.YAML("output", altsrc.StringSourcer(cfgPath)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "select",
			Aliases: []string{"q"},
			Usage:   "gjson query applied to the result before output",
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfgPath)),
				yaml.YAML("titles", altsrc.StringSourcer(cfgPath)),
			),
			Value: false,
		},
	}

	return append(flags, NewS3Flags(ns, cfgPath)...)
}

// NewS3Flags returns the flags only the s3 backend reads.
func NewS3Flags(ns string, cfgPath string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "bucket",
			Usage:   "s3 bucket",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_BUCKET")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "prefix",
			Usage:   "s3 key prefix",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_PREFIX")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:  "region",
			Usage: "s3 region",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("DOTCACHE_REGION"),
				cli.EnvVar("AWS_REGION"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:  "profile",
			Usage: "aws shared config profile",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("DOTCACHE_PROFILE"),
				cli.EnvVar("AWS_PROFILE"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfgPath, &cli.StringFlag{
			Name:    "endpoint",
			Usage:   "s3 compatible endpoint url",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DOTCACHE_ENDPOINT")),
		}),
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	if path == "" {
		return flag
	}

	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

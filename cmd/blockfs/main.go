// Command blockfs is a thin demonstration front end for the library: it is
// not part of the on-disk format or the namespace/file operations that
// make up the core, just a way to drive them from a shell.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/blockfs"
	"github.com/dargueta/blockfs/device"
	"github.com/dargueta/blockfs/layout"
)

func main() {
	app := cli.App{
		Name:  "blockfs",
		Usage: "Inspect and manipulate blockfs disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a new, empty disk image",
				ArgsUsage: "IMAGE BLOCKS",
				Action:    formatImage,
			},
			{
				Name:      "mkdir",
				Usage:     "Create a directory",
				ArgsUsage: "IMAGE PATH",
				Action:    withMount(func(fs *blockfs.Filesystem, args []string) error {
					return fs.Create(args[0], true)
				}),
			},
			{
				Name:      "touch",
				Usage:     "Create an empty file",
				ArgsUsage: "IMAGE PATH",
				Action:    withMount(func(fs *blockfs.Filesystem, args []string) error {
					return fs.Create(args[0], false)
				}),
			},
			{
				Name:      "ls",
				Usage:     "List a directory's contents",
				ArgsUsage: "IMAGE PATH",
				Action:    withMount(listDirectory),
			},
			{
				Name:      "rm",
				Usage:     "Recursively remove a file or directory",
				ArgsUsage: "IMAGE PATH",
				Action:    withMount(func(fs *blockfs.Filesystem, args []string) error {
					return fs.Remove(args[0])
				}),
			},
			{
				Name:      "write",
				Usage:     "Write text to a file",
				ArgsUsage: "IMAGE PATH TEXT",
				Action:    withMount(writeFile),
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents",
				ArgsUsage: "IMAGE PATH",
				Action:    withMount(catFile),
			},
			{
				Name:      "stat",
				Usage:     "Show block and inode usage",
				ArgsUsage: "IMAGE",
				Action:    withMount(printStat),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("blockfs: %s", err)
	}
}

func formatImage(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: blockfs format IMAGE BLOCKS", 1)
	}
	path := c.Args().Get(0)
	blocks, err := strconv.ParseUint(c.Args().Get(1), 10, 32)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid block count: %s", err), 1)
	}

	dev, err := device.CreateFileDevice(path, uint32(blocks))
	if err != nil {
		return err
	}
	return blockfs.Format(dev)
}

// withMount opens IMAGE, the first positional argument, mounts it, runs
// action against the remaining arguments, and unmounts on the way out
// regardless of whether action succeeded.
func withMount(action func(fs *blockfs.Filesystem, args []string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Args().Len() < 1 {
			return cli.Exit("usage: blockfs <command> IMAGE [args...]", 1)
		}

		dev, err := device.OpenFileDevice(c.Args().Get(0))
		if err != nil {
			return err
		}

		fs, err := blockfs.Mount(dev)
		if err != nil {
			return err
		}
		defer func() {
			if err := fs.Unmount(); err != nil {
				log.Printf("blockfs: unmount: %s", err)
			}
		}()

		return action(fs, c.Args().Slice()[1:])
	}
}

func listDirectory(fs *blockfs.Filesystem, args []string) error {
	if len(args) != 1 {
		return cli.Exit("usage: blockfs ls IMAGE PATH", 1)
	}
	entries, err := fs.List(args[0])
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Printf("%s %d\n", entry.Name, entry.Size)
	}
	return nil
}

func writeFile(fs *blockfs.Filesystem, args []string) error {
	if len(args) != 2 {
		return cli.Exit("usage: blockfs write IMAGE PATH TEXT", 1)
	}
	data := []byte(args[1])
	return fs.Write(args[0], data, len(data), false)
}

func catFile(fs *blockfs.Filesystem, args []string) error {
	if len(args) != 1 {
		return cli.Exit("usage: blockfs cat IMAGE PATH", 1)
	}
	buf := make([]byte, layout.MaxFileSize)
	n, err := fs.Read(args[0], buf, len(buf), 0)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}

func printStat(fs *blockfs.Filesystem, args []string) error {
	stat, err := fs.Stat()
	if err != nil {
		return err
	}
	fmt.Printf("Filesystem Statistics:\n")
	fmt.Printf("Total Blocks: %d (free: %d)\n", stat.TotalBlocks, stat.FreeBlocks)
	fmt.Printf("Total Inodes: %d (free: %d)\n", stat.TotalInodes, stat.FreeInodes)
	return nil
}

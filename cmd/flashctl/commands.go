package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/e2b-dev/infra/packages/flash/internal/cfg"
	"github.com/e2b-dev/infra/packages/flash/pkg/norflash"
)

// runFormat erases every given image, or the configured one. The images are
// independent devices and are formatted concurrently.
func runFormat(ctx context.Context, config cfg.Config, args []string) error {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{config.ImagePath}
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			return formatImage(config, path)
		})
	}

	return g.Wait()
}

func formatImage(config cfg.Config, path string) (e error) {
	d, err := openDevice(config, path)
	if err != nil {
		return err
	}

	defer func() {
		if err := d.Close(); err != nil && e == nil {
			e = fmt.Errorf("failed to close image %s: %w", path, err)
		}
	}()

	err = d.flash.Erase(0, uint32(d.flash.Capacity()))
	if err != nil {
		return fmt.Errorf("failed to erase image %s: %w", path, err)
	}

	zap.L().Info("image formatted",
		zap.String("path", path),
		zap.Int("pages", d.stats.Erased),
	)

	return nil
}

func runWrite(config cfg.Config, args []string, out io.Writer) (e error) {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	offset := fs.Uint("offset", 0, "byte offset")
	data := fs.String("hex", "", "hex encoded bytes to write")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := checkOffset(*offset); err != nil {
		return err
	}

	bytes, err := hex.DecodeString(*data)
	if err != nil {
		return fmt.Errorf("invalid hex data: %w", err)
	}

	d, err := openDevice(config, config.ImagePath)
	if err != nil {
		return err
	}

	defer func() {
		if err := d.Close(); err != nil && e == nil {
			e = fmt.Errorf("failed to close image: %w", err)
		}
	}()

	err = d.storage.Write(uint32(*offset), bytes)
	if err != nil {
		return fmt.Errorf("failed to write %d bytes at %d: %w", len(bytes), *offset, err)
	}

	fmt.Fprintf(out, "wrote %d bytes at %d (reads %d, erases %d, writes %d)\n",
		len(bytes), *offset, d.stats.Reads, d.stats.Erases, d.stats.Writes)

	return nil
}

func runRead(config cfg.Config, args []string, out io.Writer) (e error) {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	offset := fs.Uint("offset", 0, "byte offset, aligned to the read size")
	length := fs.Int("length", 16, "number of bytes, aligned to the read size")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := checkOffset(*offset); err != nil {
		return err
	}

	d, err := openDevice(config, config.ImagePath)
	if err != nil {
		return err
	}

	defer func() {
		if err := d.Close(); err != nil && e == nil {
			e = fmt.Errorf("failed to close image: %w", err)
		}
	}()

	if *length < 0 {
		return fmt.Errorf("length must not be negative")
	}

	b := make([]byte, *length)

	err = d.storage.Read(uint32(*offset), b)
	if err != nil {
		return fmt.Errorf("failed to read %d bytes at %d: %w", *length, *offset, err)
	}

	_, err = io.WriteString(out, hex.Dump(b))

	return err
}

// checkOffset rejects offsets that do not fit the 32-bit device address space.
func checkOffset(offset uint) error {
	if uint64(offset) > math.MaxUint32 {
		return fmt.Errorf("offset %d: %w", offset, norflash.OutOfBounds)
	}

	return nil
}

func runInspect(config cfg.Config, args []string, out io.Writer) (e error) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	start := fs.Int("start", 0, "first erase page")
	end := fs.Int("end", 0, "erase page after the last one, 0 for all")

	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := openDevice(config, config.ImagePath)
	if err != nil {
		return err
	}

	defer func() {
		if err := d.Close(); err != nil && e == nil {
			e = fmt.Errorf("failed to close image: %w", err)
		}
	}()

	eraseSize := d.flash.EraseSize()
	pages := d.flash.Capacity() / eraseSize

	if *end == 0 {
		*end = pages
	}

	if *start < 0 || *end > pages {
		return fmt.Errorf("pages [%d, %d) are out of bounds (device has %d)", *start, *end, pages)
	}

	if *start > *end {
		return fmt.Errorf("start page %d is greater than end page %d", *start, *end)
	}

	fmt.Fprintf(out, "\nMETADATA\n")
	fmt.Fprintf(out, "========\n")
	fmt.Fprintf(out, "Image              %s\n", d.file.Path())
	fmt.Fprintf(out, "Capacity           %d B (%s)\n", d.flash.Capacity(), humanize.IBytes(uint64(d.flash.Capacity())))
	fmt.Fprintf(out, "Read size          %d B\n", d.flash.ReadSize())
	fmt.Fprintf(out, "Write size         %d B\n", d.flash.WriteSize())
	fmt.Fprintf(out, "Erase size         %d B\n", eraseSize)
	fmt.Fprintf(out, "Multiwrite         %t\n", config.Multiwrite)

	b := make([]byte, eraseSize)
	erasedCount := 0
	programmedCount := 0

	fmt.Fprintf(out, "\nDATA\n")
	fmt.Fprintf(out, "====\n")

	for i := *start; i < *end; i++ {
		off := i * eraseSize

		err := d.flash.Read(uint32(off), b)
		if err != nil {
			return fmt.Errorf("failed to read page %d: %w", i, err)
		}

		programmed := 0
		for _, v := range b {
			if v != d.flash.EraseByte() {
				programmed++
			}
		}

		if programmed > 0 {
			programmedCount++
			fmt.Fprintf(out, "%-10d [%11d,%11d) %d programmed bytes\n", i, off, off+eraseSize, programmed)
		} else {
			erasedCount++
			fmt.Fprintf(out, "%-10d [%11d,%11d) ERASED\n", i, off, off+eraseSize)
		}
	}

	inspected := erasedCount + programmedCount

	fmt.Fprintf(out, "\nSUMMARY\n")
	fmt.Fprintf(out, "=======\n")
	fmt.Fprintf(out, "Erased inspected pages: %d\n", erasedCount)
	fmt.Fprintf(out, "Programmed inspected pages: %d\n", programmedCount)
	fmt.Fprintf(out, "Total inspected pages: %d\n", inspected)
	fmt.Fprintf(out, "Total inspected size: %s\n", humanize.IBytes(uint64(inspected*eraseSize)))
	fmt.Fprintf(out, "Erased inspected size: %s\n", humanize.IBytes(uint64(erasedCount*eraseSize)))

	return nil
}

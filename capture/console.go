package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"essaim.dev/depthcam/camera"
)

const usage = "Usage: rscapture --save [bool, default is false]"

// ParseSaveArgs reads the command line of rscapture, without the program
// name. Only "--save <bool>" is accepted; anything else prints the usage and
// disables saving.
func ParseSaveArgs(args []string, w io.Writer) bool {
	if len(args) == 2 && args[0] == "--save" {
		if save, err := strconv.ParseBool(args[1]); err == nil {
			return save
		}
	}

	fmt.Fprintln(w, usage)
	return false
}

// Confirm asks whether to start capturing until the answer is y or n.
func Confirm(r io.Reader, w io.Writer) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	for {
		fmt.Fprint(w, "\nContinue?[y/n]")

		if !sc.Scan() {
			err := sc.Err()
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return false, fmt.Errorf("could not read answer: %w", err)
		}

		switch sc.Text() {
		case "y":
			fmt.Fprintln(w)
			return true, nil
		case "n":
			fmt.Fprintln(w)
			return false, nil
		}
	}
}

// Banner selects the wording of the device report, which differs between
// rsdepth and rscapture.
type Banner int

const (
	DepthBanner Banner = iota
	CaptureBanner
)

func PrintDeviceCount(w io.Writer, count int, b Banner) {
	if b == CaptureBanner {
		fmt.Fprintf(w, "There are %d connected RealSense device.\n\n", count)
		return
	}
	fmt.Fprintf(w, "There are %d connected RealSense devices.\n", count)
}

func PrintDeviceInfo(w io.Writer, info camera.Info, b Banner) {
	indent := "    "
	if b == CaptureBanner {
		indent = ""
	}
	fmt.Fprintf(w, "\nUsing device 0, an %s\n", info.Name)
	fmt.Fprintf(w, "%sSerial number: %s\n", indent, info.Serial)
	fmt.Fprintf(w, "%sFirmware version: %s\n", indent, info.Firmware)
}

// PrintCalibration prints the color intrinsics and the depth to color
// extrinsics.
func PrintCalibration(w io.Writer, in camera.Intrinsics, ex camera.Extrinsics) {
	fmt.Fprintln(w, "# Intrinsic matrix")
	fmt.Fprintf(w, "fx: %.10g\n", in.Fx)
	fmt.Fprintf(w, "fy: %.10g\n", in.Fy)
	fmt.Fprintf(w, "cx: %.10g\n", in.Ppx)
	fmt.Fprintf(w, "cy: %.10g\n", in.Ppy)

	fmt.Fprintln(w, "# extrinsic matrix")
	for i, t := range ex.Translation {
		fmt.Fprintf(w, "t[%d]: %.10g\n", i, t)
	}
	for i, r := range ex.Rotation {
		fmt.Fprintf(w, "r[%d]: %.10g\n", i, r)
	}
}

// Report prints the outcome of a run and returns the process exit status.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var devErr *camera.DeviceError
	switch {
	case errors.As(err, &devErr):
		fmt.Fprintf(w, "device error was thrown when calling %s(%s):\n", devErr.Function, devErr.Args)
		fmt.Fprintf(w, "    %s\n", devErr.Message)
	case errors.Is(err, camera.ErrNoDevice):
		// The device count has already been printed.
	default:
		fmt.Fprintf(w, "error: %s\n", err)
	}

	return 1
}

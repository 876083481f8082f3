package fingerprint

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

const meminfoPath = "/proc/meminfo"

// Collect reads the attributes of the current process environment.
func Collect() Fingerprint {
	return Fingerprint{
		UserAgent:   "status-identity/" + runtime.Version(),
		Screen:      screen(),
		Timezone:    timezone(),
		Locale:      locale(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		Concurrency: strconv.Itoa(runtime.NumCPU()),
		Memory:      strconv.Itoa(memoryGiB(meminfoPath)),
	}
}

func screen() string {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return "0x0"
	}
	w, h, err := term.GetSize(fd)
	if err != nil {
		return "0x0"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func timezone() string {
	name, offset := time.Now().Zone()
	return fmt.Sprintf("%s%+d", name, offset/60)
}

func locale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return strings.SplitN(v, ".", 2)[0]
		}
	}
	return "C"
}

// memoryGiB mirrors the coarse device-memory hint: total RAM rounded to whole GiB.
func memoryGiB(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return (kb + 1<<19) >> 20
	}
	return 0
}

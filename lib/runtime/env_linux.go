//go:build linux
// +build linux

package runtime

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// Containers have no /dev/block, docker also drops a /.dockerenv marker.
const (
	dockerEnvPath                = "/.dockerenv"
	dockerBlockPath              = "/dev/block"
	kubernetesServiceAccountPath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
	procSelfCgroupPath           = "/proc/self/cgroup"
)

func isRegularFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

func isMissing(path string) bool {
	_, err := os.Stat(path)
	return err != nil && os.IsNotExist(err)
}

func isRunningInContainer() bool {
	return isRegularFile(dockerEnvPath) || isMissing(dockerBlockPath)
}

func isRunningInKubernetes() bool {
	stat, err := os.Stat(kubernetesServiceAccountPath)
	return err == nil && !stat.IsDir() && stat.Size() > 0
}

const (
	uuidSource      = "[0-9a-f]{8}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{4}[-_][0-9a-f]{12}|[0-9a-f]{8}(?:-[0-9a-f]{4}){4}$"
	containerSource = "[0-9a-f]{64}"
	taskSource      = "[0-9a-f]{32}-\\d+"
)

var (
	// /proc/self/cgroup line example:
	// 0::/kubepods.slice/kubepods-besteffort.slice/kubepods-besteffort-pode6ac4a8d_1076_453e_9ddb_3976520e3178.slice/cri-containerd-19cd7a809d879d9c855bb93e4d399efe795a769ac856faaa5256cdd8387fe4b1.scope
	procSelfCgroupLineRegex = regexp.MustCompile(`^\d+:[^:]*:(.+)$`)
	containerIDRegex        = regexp.MustCompile(fmt.Sprintf(`(%s|%s|%s)(?:.scope)?$`, uuidSource, containerSource, taskSource))
)

func parseContainerID(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := procSelfCgroupLineRegex.FindStringSubmatch(scanner.Text())
		if len(path) != 2 {
			continue
		}
		if parts := containerIDRegex.FindStringSubmatch(path[1]); len(parts) == 2 {
			return parts[1]
		}
	}
	return ""
}

func loadContainerID() string {
	f, err := os.Open(procSelfCgroupPath)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	return parseContainerID(f)
}

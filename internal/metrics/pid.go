package metrics

import "os"

func pid() int { return os.Getpid() }

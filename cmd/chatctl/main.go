// chatctl 은 운영자용 CLI 이다. 사용자 생성, 토큰 발급, 크레딧 지급/검증, 알림 발송을 한다.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

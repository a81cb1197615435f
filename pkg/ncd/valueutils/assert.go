//go:build !ncddebug

package valueutils

import "github.com/zeroisme/badvpn/pkg/ncd/val"

func assertNoNulls(val.Ref) {}

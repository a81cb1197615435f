//go:build ncddebug

package valueutils

import "github.com/zeroisme/badvpn/pkg/ncd/val"

func assertNoNulls(s val.Ref) {
	if !s.IsStringNoNulls() {
		panic("valueutils: string contains a zero byte")
	}
}

// Package codes arma los identificadores legibles a partir de los consecutivos del asignador.
// El asignador no conoce estos formatos; cambiarlos no afecta su contrato.
package codes

import (
	"fmt"
	"strings"
	"time"
)

// Receipt RCPT-YYYYMMDD-000123 (consecutivo por sucursal).
func Receipt(prefix string, date time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, date.Format("20060102"), n)
}

// Product <prefijo>-<empresa>-00042.
func Product(prefix, tenantCode string, n int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, TenantCode(tenantCode), n)
}

// SKU SKU-000042.
func SKU(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// Label LBL-000042.
func Label(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// TenantCode normaliza el identificador de empresa a 6 caracteres alfanuméricos en mayúscula.
func TenantCode(tenantID string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(tenantID) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 6 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "GEN"
	}
	return b.String()
}

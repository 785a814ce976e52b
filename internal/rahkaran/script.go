package rahkaran

import (
	"fmt"
	"strings"

	"RahkaranSync/internal/model"
)

// The proxy executes one opaque multi-statement T-SQL script per request,
// wrapped in its own transaction on the remote side. Scripts are built only
// from a validated, balanced Voucher; every string crossing the boundary
// goes through escapeSQL, never raw concatenation of user input.

const dateLayout = "2006-01-02"

// escapeSQL makes a statement-safe string literal body: quotes doubled,
// control characters stripped.
func escapeSQL(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r < 0x20 || r == 0x7f:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// probeScript reads the current number high-water marks under UPDLOCK so a
// concurrent allocator blocks rather than reads stale maxima. Returns one
// row: MaxGlobal, MaxDaily.
func probeScript(v model.Voucher) string {
	return fmt.Sprintf(`SET TRANSACTION ISOLATION LEVEL SERIALIZABLE;
SELECT
 (SELECT ISNULL(MAX(Number), 0) FROM [ACC].[Voucher] WITH (UPDLOCK, HOLDLOCK)
   WHERE LedgerID = %d AND FiscalYearID = %d AND VoucherTypeID = %d) AS MaxGlobal,
 (SELECT ISNULL(MAX(DailyNumber), 0) FROM [ACC].[Voucher] WITH (UPDLOCK, HOLDLOCK)
   WHERE LedgerID = %d AND BranchID = %d AND [Date] = '%s') AS MaxDaily;`,
		v.LedgerID, v.FiscalYearID, v.VoucherType,
		v.LedgerID, v.BranchID, v.Date.Format(dateLayout))
}

// submitScript writes header, lines, the lock record and the final activate
// in one remote transaction. Any statement error rolls the whole script
// back. The trailing SELECT is the success row the client requires before a
// transaction may be marked settled.
func submitScript(v model.Voucher, globalNumber, dailyNumber int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, `SET XACT_ABORT ON;
BEGIN TRANSACTION;
DECLARE @DocID BIGINT;
INSERT INTO [ACC].[Voucher]
 (LedgerID, FiscalYearID, BranchID, VoucherTypeID, Number, DailyNumber, [Date], Description, State)
VALUES (%d, %d, %d, %d, %d, %d, '%s', N'%s', 1);
SET @DocID = SCOPE_IDENTITY();
`,
		v.LedgerID, v.FiscalYearID, v.BranchID, v.VoucherType,
		globalNumber, dailyNumber, v.Date.Format(dateLayout), escapeSQL(v.Description))

	for _, line := range v.Lines {
		dl := "NULL"
		if line.DLCode != "" {
			dl = fmt.Sprintf("N'%s'", escapeSQL(line.DLCode))
		}
		fmt.Fprintf(&b, `INSERT INTO [ACC].[VoucherItem]
 (VoucherID, RowNumber, SLCode, DLCode, Debit, Credit, Description)
VALUES (@DocID, %d, N'%s', %s, %s, %s, N'%s');
`,
			line.RowNumber, escapeSQL(line.SLCode), dl,
			line.Debit.StringFixed(0), line.Credit.StringFixed(0),
			escapeSQL(line.Description))
	}

	fmt.Fprintf(&b, `INSERT INTO [ACC].[VoucherLock] (VoucherID, LockDate) VALUES (@DocID, GETDATE());
UPDATE [ACC].[Voucher] SET State = 2 WHERE VoucherID = @DocID;
COMMIT TRANSACTION;
SELECT 'OK' AS Status, %d AS VoucherNum, %d AS DailyNum, @DocID AS RefNum;`,
		globalNumber, dailyNumber)

	return b.String()
}

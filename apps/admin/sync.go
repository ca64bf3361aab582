package main

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/form"
	sheetsvc "github.com/trezcool/maoni/services/sheets"
)

// mockable
var newSheetServiceFunc = func(ctx context.Context, conf *core.Config) (core.SheetService, error) {
	return sheetsvc.NewGoogleService(ctx, conf)
}

// sync runs a synchronization pass over all current courses and emails
// the report to the configured recipients.
func (cli *commandLine) sync() error {
	ctx := context.Background()

	sheetSvc, err := newSheetServiceFunc(ctx, cli.conf)
	if err != nil {
		return err
	}
	formSvc := form.NewService(cli.db, cli.formRepo, cli.courseRepo, sheetSvc, cli.logger)

	cfg, err := cli.paramSvc.SyncConfig(ctx)
	if err != nil {
		return err
	}
	res, err := formSvc.SyncAll(ctx, cfg)
	if err != nil {
		return err
	}

	report := res.Report()
	fmt.Println(report)

	if len(cli.conf.ReportRecipients) > 0 {
		to := make([]mail.Address, 0, len(cli.conf.ReportRecipients))
		for _, rcpt := range cli.conf.ReportRecipients {
			to = append(to, mail.Address{Address: rcpt})
		}
		// block until delivered, main exits right after this command
		msg := &core.EmailMessage{
			To:          to,
			Subject:     "Survey synchronization report",
			TextContent: report,
		}
		if err = cli.emailSvc.SendMessage(msg); err != nil {
			return errors.Wrap(err, "sending report")
		}
	}
	return nil
}

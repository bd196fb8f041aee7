package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"broker/internal/message"
	"broker/internal/msglog"
	"broker/internal/session"

	"github.com/bytedance/sonic"
)

func main() {
	dir := flag.String("dir", "log", "Message log directory")
	prefix := flag.String("prefix", "broker", "Message log file prefix")
	sessionID := flag.String("session", "", "Only print records of this session")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxBody := flag.Int("max-body", 0, "Max body size in bytes (0=unlimited)")
	decode := flag.Bool("decode", false, "Decode known message types")
	flag.Parse()

	opts := msglog.ReaderOptions{
		DisableChecksum: *noChecksum,
		MaxBodySize:     *maxBody,
	}

	var index int
	err := msglog.Scan(context.Background(), *dir, *prefix, opts, func(rec msglog.Record) error {
		if *sessionID != "" && rec.Session != session.ID(*sessionID) {
			return nil
		}
		index++
		fmt.Printf("%06d seq=%d %s session=%s type=%s time=%s len=%d\n",
			index, rec.Seq, rec.Direction, rec.Session, rec.Type, rec.Time.Format("2006-01-02T15:04:05.000000Z"), len(rec.Body))
		if *decode {
			printDecoded(rec)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("msgdump failed: %v", err)
	}
}

func printDecoded(rec msglog.Record) {
	switch rec.Type {
	case message.MsgTypeExecutionReport:
		var rpt message.ExecutionReport
		if err := sonic.Unmarshal(rec.Body, &rpt); err != nil {
			fmt.Printf("  decode %s failed: %v\n", rec.Type, err)
			return
		}
		fmt.Printf("  report order=%s cl_ord=%s exec=%s exec_type=%s status=%s qty=%s cum=%s leaves=%s avg_px=%s\n",
			rpt.OrderID, rpt.ClOrdID, rpt.ExecID, rpt.ExecType, rpt.OrdStatus, rpt.OrderQty, rpt.CumQty, rpt.LeavesQty, rpt.AvgPx)
		if rpt.OrigClOrdID != "" {
			fmt.Printf("  orig cl_ord=%s\n", rpt.OrigClOrdID)
		}
		if rpt.LastQty != nil && rpt.LastPx != nil {
			fmt.Printf("  last qty=%s px=%s\n", rpt.LastQty, rpt.LastPx)
		}
	case message.MsgTypeBusinessMessageReject:
		var rej message.BusinessMessageReject
		if err := sonic.Unmarshal(rec.Body, &rej); err != nil {
			fmt.Printf("  decode %s failed: %v\n", rec.Type, err)
			return
		}
		fmt.Printf("  reject ref=%s reason=%d text=%q\n", rej.RefMsgType, rej.BusinessRejectReason, rej.Text)
	case message.MsgTypeOrderCancelReject:
		var rej message.OrderCancelReject
		if err := sonic.Unmarshal(rec.Body, &rej); err != nil {
			fmt.Printf("  decode %s failed: %v\n", rec.Type, err)
			return
		}
		fmt.Printf("  cancel reject order=%s cl_ord=%s orig=%s reason=%d text=%q\n", rej.OrderID, rej.ClOrdID, rej.OrigClOrdID, rej.CxlRejReason, rej.Text)
	case message.MsgTypeNewOrderSingle, message.MsgTypeOrderCancelRequest:
		var msg message.Message
		if err := sonic.Unmarshal(rec.Body, &msg); err != nil {
			fmt.Printf("  decode %s failed: %v\n", rec.Type, err)
			return
		}
		for tag, value := range msg.Fields {
			fmt.Printf("  %d=%s\n", tag, value)
		}
	}
}

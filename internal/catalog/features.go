package catalog

import (
	"fmt"
	"time"

	"github.com/iambrandonn/dailyorch/internal/protocol"
)

// Call timeouts that differ from the gateway default
const (
	ArenaFightTimeout = 10 * time.Second
	BossFightTimeout  = 12 * time.Second
	PointClaimTimeout = 5 * time.Second
)

// Daily task ids referenced by gates
const (
	TaskShare       = 2
	TaskGift        = 3
	TaskRecruit     = 4
	TaskHangUp      = 5
	TaskBuyGold     = 6
	TaskOpenBox     = 7
	TaskBlackMarket = 12
	TaskArena       = 13
	TaskBottle      = 14
)

// Factions for the per-faction free genie sweep, by genie id
var Factions = [4]string{"Wei", "Shu", "Wu", "Qun"}

type feature struct {
	name string
	gate string
	emit func(b *builder) []Task
}

// features is evaluated top to bottom; every gate is independent.
var features = buildFeatures()

func buildFeatures() []feature {
	fs := []feature{
		{
			name: "share",
			gate: notComplete(TaskShare),
			emit: func(b *builder) []Task {
				return []Task{b.call("share game", protocol.CmdShareCallback, shareParams(), 0)}
			},
		},
		{
			name: "gift",
			gate: notComplete(TaskGift),
			emit: func(b *builder) []Task {
				return []Task{b.call("gift friends gold", protocol.CmdFriendBatch, nil, 0)}
			},
		},
		{
			name: "recruit",
			gate: notComplete(TaskRecruit),
			emit: func(b *builder) []Task {
				tasks := []Task{b.call("free recruit", protocol.CmdHeroRecruit, protocol.Body{"recruitType": 3, "recruitNumber": 1}, 0)}
				if b.settings.PayRecruit {
					tasks = append(tasks, b.call("paid recruit", protocol.CmdHeroRecruit, protocol.Body{"recruitType": 1, "recruitNumber": 1}, 0))
				}
				return tasks
			},
		},
		{
			name: "buy gold",
			gate: notComplete(TaskBuyGold) + ` && TodayAvailable("buy:gold")`,
			emit: func(b *builder) []Task {
				return b.repeat(3, "free gold buy", protocol.CmdBuyGold, protocol.Body{"buyNum": 1}, 0)
			},
		},
		{
			name: "hang-up",
			gate: notComplete(TaskHangUp) + " && Settings.ClaimHangUp",
			emit: func(b *builder) []Task {
				tasks := []Task{b.call("claim hang-up reward", protocol.CmdClaimHangUp, nil, 0)}
				return append(tasks, b.repeat(4, "extend hang-up", protocol.CmdShareCallback, shareParams(), 0)...)
			},
		},
		{
			name: "open box",
			gate: notComplete(TaskOpenBox) + " && Settings.OpenBox",
			emit: func(b *builder) []Task {
				return []Task{b.call("open wooden box x10", protocol.CmdOpenBox, protocol.Body{"itemId": 2001, "number": 10}, 0)}
			},
		},
		{
			name: "bottle",
			gate: notComplete(TaskBottle) + " && Settings.ClaimBottle",
			emit: func(b *builder) []Task {
				return []Task{
					b.call("claim bottle reward", protocol.CmdBottleClaim, nil, 0),
					b.call("stop bottle", protocol.CmdBottleStop, nil, 0),
					b.call("start bottle", protocol.CmdBottleStart, nil, 0),
				}
			},
		},
		{
			name: "arena",
			gate: notComplete(TaskArena) + " && Settings.ArenaEnable",
			emit: func(b *builder) []Task {
				return []Task{b.arena()}
			},
		},
		{
			name: "legion boss",
			gate: `Settings.BossTimes > 0 && TodayAvailable("legion:boss")`,
			emit: func(b *builder) []Task {
				n := b.settings.BossTimes
				tasks := []Task{b.formationCheck("legion boss formation check", b.settings.BossFormation, "boss formation")}
				for i := 1; i <= n; i++ {
					tasks = append(tasks, b.call(fmt.Sprintf("legion boss %d/%d", i, n), protocol.CmdLegionBoss, nil, BossFightTimeout))
				}
				return tasks
			},
		},
		{
			name: "daily boss",
			emit: func(b *builder) []Task {
				var tasks []Task
				if b.settings.BossTimes == 0 {
					tasks = append(tasks, b.formationCheck("daily boss formation check", b.settings.BossFormation, "boss formation"))
				}
				return append(tasks, b.repeat(3, "daily boss", protocol.CmdDailyBoss, protocol.Body{"bossId": b.bossID}, BossFightTimeout)...)
			},
		},
		{
			name: "fixed rewards",
			emit: func(b *builder) []Task {
				return []Task{
					b.call("sign-in reward", protocol.CmdSignInReward, nil, 0),
					b.call("club sign-in", protocol.CmdLegionSignIn, nil, 0),
					b.call("daily discount pack", protocol.CmdDiscountClaim, nil, 0),
					b.call("daily free collection", protocol.CmdCollectionFree, nil, 0),
					b.call("free card pack", protocol.CmdCardClaim, nil, 0),
					b.call("permanent card pack", protocol.CmdCardClaim, protocol.Body{"cardId": 4003}, 0),
				}
			},
		},
		{
			name: "mail",
			gate: "Settings.ClaimEmail",
			emit: func(b *builder) []Task {
				return []Task{b.call("claim mail attachments", protocol.CmdMailClaimAll, nil, 0)}
			},
		},
		{
			name: "lottery",
			gate: `TodayAvailable("artifact:normal:lottery:time")`,
			emit: func(b *builder) []Task {
				return b.repeat(3, "free lottery", protocol.CmdArtifactLottery, protocol.Body{"lotteryNumber": 1, "newFree": true, "type": 1}, 0)
			},
		},
	}
	fs = append(fs, genieFeatures()...)
	return append(fs, []feature{
		{
			name: "sweep vouchers",
			emit: func(b *builder) []Task {
				return b.repeat(3, "claim free sweep voucher", protocol.CmdGenieBuySweep, nil, 0)
			},
		},
		{
			name: "black market",
			gate: notComplete(TaskBlackMarket) + " && Settings.BlackMarketPurchase",
			emit: func(b *builder) []Task {
				return []Task{
					b.call("buy bronze chest", protocol.CmdStoreBuy, protocol.Body{"goodsId": 1}, 0),
					b.call("black market purchase", protocol.CmdStorePurchase, protocol.Body{"goodsId": 1}, 0),
				}
			},
		},
		{
			name: "point claims",
			emit: func(b *builder) []Task {
				tasks := make([]Task, 0, 10)
				for id := 1; id <= 10; id++ {
					tasks = append(tasks, b.call(fmt.Sprintf("claim task reward %d", id), protocol.CmdClaimDailyPoint, protocol.Body{"taskId": id}, PointClaimTimeout))
				}
				return tasks
			},
		},
		{
			name: "daily and weekly rewards",
			emit: func(b *builder) []Task {
				return []Task{
					b.call("claim daily task reward", protocol.CmdClaimDaily, nil, 0),
					b.call("claim weekly task reward", protocol.CmdClaimWeekly, nil, 0),
				}
			},
		},
	}...)
}

func genieFeatures() []feature {
	out := make([]feature, 0, len(Factions))
	for i, faction := range Factions {
		genieID := i + 1
		out = append(out, feature{
			name: "genie " + faction,
			gate: fmt.Sprintf(`TodayAvailable("genie:daily:free:%d")`, genieID),
			emit: func(b *builder) []Task {
				return []Task{b.call(faction+" genie free sweep", protocol.CmdGenieSweep, protocol.Body{"genieId": genieID}, 0)}
			},
		})
	}
	return out
}

func notComplete(id int) string {
	return fmt.Sprintf("!Complete(%d)", id)
}

func shareParams() protocol.Body {
	return protocol.Body{"isSkipShareCard": true, "type": 2}
}

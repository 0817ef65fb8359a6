package protocol

// Game command names. These are contract keys defined by the game server;
// they must match the bridge's command table exactly.
const (
	CmdRoleInfo = "role_getroleinfo"

	CmdShareCallback   = "system_mysharecallback"
	CmdFriendBatch     = "friend_batch"
	CmdHeroRecruit     = "hero_recruit"
	CmdBuyGold         = "system_buygold"
	CmdClaimHangUp     = "system_claimhangupreward"
	CmdOpenBox         = "item_openbox"
	CmdBottleClaim     = "bottlehelper_claim"
	CmdBottleStop      = "bottlehelper_stop"
	CmdBottleStart     = "bottlehelper_start"
	CmdSignInReward    = "system_signinreward"
	CmdLegionSignIn    = "legion_signin"
	CmdDiscountClaim   = "discount_claimreward"
	CmdCollectionFree  = "collection_claimfreereward"
	CmdCardClaim       = "card_claimreward"
	CmdMailClaimAll    = "mail_claimallattachment"
	CmdArtifactLottery = "artifact_lottery"
	CmdGenieSweep      = "genie_sweep"
	CmdGenieBuySweep   = "genie_buysweep"
	CmdStoreBuy        = "store_buy"
	CmdStorePurchase   = "store_purchase"
	CmdClaimDailyPoint = "task_claimdailypoint"
	CmdClaimDaily      = "task_claimdailyreward"
	CmdClaimWeekly     = "task_claimweekreward"

	CmdTeamInfo = "presetteam_getinfo"
	CmdTeamSave = "presetteam_saveteam"

	CmdArenaStart  = "arena_startarea"
	CmdArenaTarget = "arena_getareatarget"
	CmdArenaFight  = "fight_startareaarena"

	CmdLegionBoss = "fight_startlegionboss"
	CmdDailyBoss  = "fight_startboss"

	CmdStudyStart = "study_startgame"

	CmdCarList    = "car_getrolecar"
	CmdCarRefresh = "car_refresh"
	CmdCarSend    = "car_send"
	CmdCarClaim   = "car_claim"
)

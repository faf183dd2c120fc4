// Package ruleforks defines the set of consensus rule changes a chain state
// can activate.
package ruleforks

import "strings"

// RuleForks is a bit set of consensus rule changes.
type RuleForks uint64

// Rule fork bits. A configured bit only enables its rule once the
// corresponding activation condition is met.
const (
	// EasyBlocks allows minimum difficulty blocks (testnet).
	EasyBlocks RuleForks = 1 << iota

	// BIP16 enforces pay-to-script-hash.
	BIP16

	// BIP30 disallows transactions that duplicate an unspent transaction.
	BIP30

	// BIP34 requires the block height in the coinbase.
	BIP34

	// BIP66 enforces strict DER signatures.
	BIP66

	// BIP65 enables OP_CHECKLOCKTIMEVERIFY.
	BIP65

	// BIP90 buries the BIP34/BIP65/BIP66 activation heights.
	BIP90

	// AllowCollisions allows duplicate transaction hashes once BIP34 makes
	// them impossible.
	AllowCollisions

	// BIP68 enables relative lock-time through sequence numbers.
	BIP68

	// BIP112 enables OP_CHECKSEQUENCEVERIFY.
	BIP112

	// BIP113 uses median time past for lock-time calculations.
	BIP113

	// BIP141 enables segregated witness consensus rules.
	BIP141

	// BIP143 enables the witness signature hash.
	BIP143

	// BIP147 enforces the NULLDUMMY rule.
	BIP147

	// UAHF is the Bitcoin Cash user activated hard fork (8 MB, replay
	// protection, emergency difficulty adjustment).
	UAHF

	// DAA replaces the difficulty adjustment with cw-144.
	DAA

	// Monolith raises the block size to 32 MB and re-enables opcodes.
	Monolith

	// MagneticAnomaly enables canonical transaction ordering and a minimum
	// transaction size.
	MagneticAnomaly

	// GreatWall is the May 2019 upgrade (Schnorr signatures, segwit recovery).
	GreatWall

	// Graviton is the November 2019 upgrade (Schnorr multisig, minimal data).
	Graviton

	// Phonon is the May 2020 upgrade (sigchecks, OP_REVERSEBYTES).
	Phonon

	// Axion is the November 2020 upgrade (aserti3-2d).
	Axion

	// Upgrade9 is the May 2023 upgrade (CashTokens, P2SH32).
	Upgrade9

	// Upgrade10 is the May 2024 upgrade (adaptive block size limit).
	Upgrade10

	// Upgrade11 is the May 2025 upgrade (VM limits, BigInt).
	Upgrade11
)

const (
	// Retarget enables difficulty retargeting (disabled on regtest).
	Retarget RuleForks = 1 << 30

	// Unverified marks transactions that have not been validated yet.
	Unverified RuleForks = 1 << 31

	// NoRules is the empty rule set.
	NoRules RuleForks = 0

	// BIP34Rules groups the version-signalled soft forks.
	BIP34Rules = BIP34 | BIP65 | BIP66

	// BIP9Bit0Rules groups the CSV soft forks.
	BIP9Bit0Rules = BIP68 | BIP112 | BIP113

	// SegwitRules groups the segwit soft forks.
	SegwitRules = BIP141 | BIP143 | BIP147

	// BitcoinRules is every rule a Bitcoin network may activate.
	BitcoinRules = BIP16 | BIP30 | BIP34Rules | BIP90 | AllowCollisions | BIP9Bit0Rules | SegwitRules | Retarget

	// BitcoinCashRules is every rule a Bitcoin Cash network may activate.
	BitcoinCashRules = BIP16 | BIP30 | BIP34Rules | BIP90 | AllowCollisions | BIP9Bit0Rules | Retarget |
		UAHF | DAA | Monolith | MagneticAnomaly | GreatWall | Graviton | Phonon | Axion | Upgrade9 |
		Upgrade10 | Upgrade11

	// AllRules is every known rule fork.
	AllRules = BitcoinRules | BitcoinCashRules | EasyBlocks
)

var names = []struct {
	fork RuleForks
	name string
}{
	{EasyBlocks, "easy_blocks"},
	{BIP16, "bip16"},
	{BIP30, "bip30"},
	{BIP34, "bip34"},
	{BIP66, "bip66"},
	{BIP65, "bip65"},
	{BIP90, "bip90"},
	{AllowCollisions, "allow_collisions"},
	{BIP68, "bip68"},
	{BIP112, "bip112"},
	{BIP113, "bip113"},
	{BIP141, "bip141"},
	{BIP143, "bip143"},
	{BIP147, "bip147"},
	{UAHF, "uahf"},
	{DAA, "daa"},
	{Monolith, "monolith"},
	{MagneticAnomaly, "magnetic_anomaly"},
	{GreatWall, "great_wall"},
	{Graviton, "graviton"},
	{Phonon, "phonon"},
	{Axion, "axion"},
	{Upgrade9, "upgrade9"},
	{Upgrade10, "upgrade10"},
	{Upgrade11, "upgrade11"},
	{Retarget, "retarget"},
	{Unverified, "unverified"},
}

// IsEnabled returns whether every bit of fork is set in forks.
func (forks RuleForks) IsEnabled(fork RuleForks) bool {
	return forks&fork == fork
}

// Known strips every bit that is not a known rule fork.
func (forks RuleForks) Known() RuleForks {
	return forks & AllRules
}

func (forks RuleForks) String() string {
	if forks == NoRules {
		return "none"
	}
	var parts []string
	for _, n := range names {
		if forks&n.fork != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Package permission holds the authorization rules for questions.
//
// Every predicate is a pure function of the parties stored on the question
// and the caller id, so the rules can be checked without a database.
package permission

// Parties are the two answerer slots stored on a couple question
type Parties struct {
	First  int64
	Second int64
}

// Policy switches legacy behaviours back on. The zero value applies the
// intended rules.
type Policy struct {
	// LegacyAnswerCheck accepts an answer when the caller holds the first
	// slot or when the path target holds the second slot.
	LegacyAnswerCheck bool
	// LegacyLoveCheck lets any caller toggle the loved-by marker.
	LegacyLoveCheck bool
}

// IsAnswerer reports whether id holds either slot
func IsAnswerer(p Parties, id int64) bool {
	return p.First == id || p.Second == id
}

// MatchesTarget reports whether the path user is one of the answerers
func MatchesTarget(p Parties, targetID int64) bool {
	return IsAnswerer(p, targetID)
}

// CanAskCouple reports whether asker may ask the pair. Members cannot ask their own pair.
func CanAskCouple(p Parties, askerID int64) bool {
	return !IsAnswerer(p, askerID)
}

// CanView reports whether caller may read the question. Non-answerers only see answered questions.
func CanView(p Parties, callerID int64, answered bool) bool {
	return answered || IsAnswerer(p, callerID)
}

// CanAnswer reports whether caller may answer on behalf of the pair
func CanAnswer(policy Policy, p Parties, callerID, targetID int64) bool {
	if policy.LegacyAnswerCheck {
		return p.First == callerID || p.Second == targetID
	}
	return IsAnswerer(p, callerID)
}

// CanUnanswer reports whether caller may retract the answer
func CanUnanswer(p Parties, callerID int64) bool {
	return IsAnswerer(p, callerID)
}

// CanLove reports whether caller may toggle the loved-by marker
func CanLove(policy Policy, p Parties, callerID int64) bool {
	if policy.LegacyLoveCheck {
		return true
	}
	return IsAnswerer(p, callerID)
}

// CanDelete reports whether caller may delete the question
func CanDelete(p Parties, callerID int64) bool {
	return IsAnswerer(p, callerID)
}

// CanListCouple reports whether caller may browse target's couple questions.
// Strangers may only list answered ones, so pending prompts stay private.
func CanListCouple(callerID, targetID int64, answered bool) bool {
	return callerID == targetID || answered
}

// CanListSingle reports whether caller may browse target's single questions.
// Unlike couple questions there is no answered-only exception.
func CanListSingle(callerID, targetID int64) bool {
	return callerID == targetID
}

// CanViewSingle reports whether caller may read a single question
func CanViewSingle(questionerID, answererID, callerID int64, answered bool) bool {
	return answered || callerID == questionerID || callerID == answererID
}

// CanAnswerSingle reports whether caller is the designated answerer
func CanAnswerSingle(answererID, callerID int64) bool {
	return answererID == callerID
}

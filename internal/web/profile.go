package web

import (
	"net/http"
)

const recentTransactions = 20

// handleProfile renders the connected account's total score, the quizzes it
// created and its recent contract writes.
func (s *Server) handleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, msg := s.account()
		if msg != "" {
			s.render(w, "wallet_missing", map[string]interface{}{"Title": "Profile", "Message": msg})
			return
		}

		data := map[string]interface{}{
			"Title":   "Profile",
			"Account": account,
		}
		var errs []string

		total, err := s.quizzes.GetUserTotalScore(r.Context(), account)
		if err != nil {
			s.logger.Error("Error fetching total score", "account", account.Hex(), "error", err)
			errs = append(errs, "Could not load your total score.")
		} else {
			data["TotalScore"] = total
			data["HasTotal"] = true
		}

		authored, err := s.quizzes.GetQuizzesByUser(r.Context(), account)
		if err != nil {
			s.logger.Error("Error fetching authored quizzes", "account", account.Hex(), "error", err)
			errs = append(errs, "Could not load your quizzes.")
		} else {
			data["Quizzes"] = authored
		}

		txs, err := s.db.RecentTransactions(account.Hex(), recentTransactions)
		if err != nil {
			s.logger.Error("Error fetching transactions", "account", account.Hex(), "error", err)
			errs = append(errs, "Could not load your transactions.")
		} else {
			data["Transactions"] = txs
		}

		data["Errors"] = errs
		s.render(w, "profile", data)
	}
}

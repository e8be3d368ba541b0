// Package js hosts scripts on an embedded JavaScript engine with a
// fixed memory budget.
//
// Each run reserves an Arena, creates a Context over it with the
// callback table (print, Date.now, performance.now, gc and the
// load/setTimeout/clearTimeout stubs), evaluates the script, prints an
// uncaught exception in long form, then destroys the Context and frees
// the Arena, in that order.
//
//	func main() {
//		runner := js.NewRunner(js.RunnerOptions{ArenaSize: 16 * 1024})
//		res, err := runner.Run(context.Background(), `print('1+2=', 1+2)`)
//		if err != nil {
//			panic(err) // the arena could not be allocated
//		}
//		if res.Failed() {
//			fmt.Println("uncaught:", res.Exception)
//		}
//	}
package js
